package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matricula/matricula/internal/middleware"
	"github.com/matricula/matricula/internal/model"
	"github.com/matricula/matricula/internal/repository"
	"github.com/matricula/matricula/internal/response"
	"github.com/matricula/matricula/internal/service"
	"github.com/matricula/matricula/internal/validator"
)

// UserHandler manages operator accounts.
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// CreateUser godoc
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req model.CreateUserRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.userService.Create(c.Request.Context(), middleware.MustUserID(c), req)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		// max=72 counts runes; multibyte passwords can still overflow bcrypt.
		if errors.Is(err, service.ErrPasswordTooLong) {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
				map[string]string{"password": "password must be at most 72 bytes"})
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"user": user})
}
