package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/matricula/matricula/internal/middleware"
	"github.com/matricula/matricula/internal/model"
	"github.com/matricula/matricula/internal/response"
	"github.com/matricula/matricula/internal/service"
	"github.com/matricula/matricula/internal/validator"
)

// XLSXContentType is the media type of exported rosters.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// StudentHandler handles student registration, listing and reports.
type StudentHandler struct {
	studentService *service.StudentService
	exportService  *service.ExportService
	log            zerolog.Logger
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(studentService *service.StudentService, exportService *service.ExportService, log zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		studentService: studentService,
		exportService:  exportService,
		log:            log.With().Str("component", "student_handler").Logger(),
	}
}

// ListStudents godoc
// GET /api/v1/students
// Lists students ordered by ID with pagination.
func (h *StudentHandler) ListStudents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(service.DefaultPerPage)))
	page, perPage = service.NormalizePage(page, perPage)

	students, total, err := h.studentService.List(c.Request.Context(), page, perPage)
	if err != nil {
		h.log.Error().Err(err).Msg("List students failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"students": students}, response.NewPagination(page, perPage, total))
}

// CreateStudent godoc
// POST /api/v1/students
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	var req model.CreateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentService.Create(c.Request.Context(), middleware.MustUserID(c), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPlanPeriod) {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidPeriod, map[string]string{
				"plan_end_date": response.GetMessage(response.ErrInvalidPeriod),
			})
			return
		}
		h.log.Error().Err(err).Msg("Create student failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"student": student})
}

// GetStatus godoc
// GET /api/v1/students/:id/status
// Returns the student together with their payments.
func (h *StudentHandler) GetStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	status, err := h.studentService.Status(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrStudentNotFound)
			return
		}
		h.log.Error().Err(err).Int("student_id", id).Msg("Student status failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, status)
}

// ListDelinquent godoc
// GET /api/v1/students/delinquent
// Lists students without any recorded payment.
func (h *StudentHandler) ListDelinquent(c *gin.Context) {
	students, err := h.studentService.Delinquent(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("List delinquent failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"students": students})
}

// Export godoc
// GET /api/v1/students/export
// Streams the whole roster as an XLSX workbook.
func (h *StudentHandler) Export(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.exportService.WriteRoster(c.Request.Context(), &buf); err != nil {
		h.log.Error().Err(err).Msg("Export failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	filename := fmt.Sprintf("alunos-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, XLSXContentType, buf.Bytes())
}
