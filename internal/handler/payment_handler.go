package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matricula/matricula/internal/middleware"
	"github.com/matricula/matricula/internal/model"
	"github.com/matricula/matricula/internal/response"
	"github.com/matricula/matricula/internal/service"
	"github.com/matricula/matricula/internal/validator"
)

// PaymentHandler records monthly fee payments.
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// RecordPayment godoc
// POST /api/v1/payments
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	var req model.RecordPaymentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	payment, err := h.paymentService.Record(c.Request.Context(), middleware.MustUserID(c), req)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrStudentNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"payment": payment})
}
