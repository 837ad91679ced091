package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/matricula/matricula/internal/model"
	"github.com/matricula/matricula/internal/repository"
)

// Pagination bounds for the student listing.
const (
	DefaultPerPage = 50
	MaxPerPage     = 100
)

var (
	// ErrStudentNotFound is returned when a student ID matches nothing.
	ErrStudentNotFound = errors.New("student not found")
	// ErrInvalidPlanPeriod is returned when the plan ends before enrollment.
	ErrInvalidPlanPeriod = errors.New("plan end date precedes enrollment date")
)

// StudentService handles student registration and listing.
type StudentService struct {
	students StudentStore
	payments PaymentStore
	events   Notifier
	log      zerolog.Logger
}

// NewStudentService creates a new StudentService.
func NewStudentService(students StudentStore, payments PaymentStore, events Notifier, log zerolog.Logger) *StudentService {
	return &StudentService{
		students: students,
		payments: payments,
		events:   events,
		log:      log.With().Str("component", "student_service").Logger(),
	}
}

// NormalizePage clamps page and perPage to the accepted range.
func NormalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

// List returns one page of students ordered by ID and the total count.
func (s *StudentService) List(ctx context.Context, page, perPage int) ([]model.Student, int, error) {
	page, perPage = NormalizePage(page, perPage)
	students, total, err := s.students.ListPaginated(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}
	if students == nil {
		students = []model.Student{}
	}
	return students, total, nil
}

// ListAll returns every student ordered by ID.
func (s *StudentService) ListAll(ctx context.Context) ([]model.Student, error) {
	return s.students.ListAll(ctx)
}

// Create registers a new student on behalf of actorID.
func (s *StudentService) Create(ctx context.Context, actorID int, req model.CreateStudentRequest) (*model.Student, error) {
	student, err := buildStudent(req)
	if err != nil {
		return nil, err
	}

	if err := s.students.Create(ctx, student); err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}

	payload, _ := json.Marshal(student)
	notify(ctx, s.events, s.log, model.AuditEvent{
		Kind:      model.AuditStudentEnrolled,
		ActorID:   actorID,
		SubjectID: student.ID,
		Payload:   string(payload),
	})

	s.log.Info().Int("student_id", student.ID).Int("actor_id", actorID).Msg("Student enrolled")
	return student, nil
}

func buildStudent(req model.CreateStudentRequest) (*model.Student, error) {
	enrolled, err := model.ParseDate(req.EnrollmentDate)
	if err != nil {
		return nil, fmt.Errorf("enrollment date: %w", err)
	}

	student := &model.Student{
		Name:           req.Name,
		Contact:        req.Contact,
		Phone:          req.Phone,
		PaymentMethod:  req.PaymentMethod,
		EnrollmentDate: enrolled,
		MonthlyFee:     req.MonthlyFee,
	}

	if req.PlanEndDate != "" {
		end, err := model.ParseDate(req.PlanEndDate)
		if err != nil {
			return nil, fmt.Errorf("plan end date: %w", err)
		}
		if end.Before(enrolled) {
			return nil, ErrInvalidPlanPeriod
		}
		student.PlanEndDate = &end
	}

	return student, nil
}

// Status returns a student with the payments recorded for them.
func (s *StudentService) Status(ctx context.Context, id int) (*model.StudentStatus, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("get student: %w", err)
	}

	payments, err := s.payments.ListByStudent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	if payments == nil {
		payments = []model.Payment{}
	}

	return &model.StudentStatus{Student: *student, Payments: payments}, nil
}

// Delinquent returns the students without any recorded payment.
func (s *StudentService) Delinquent(ctx context.Context) ([]model.Student, error) {
	students, err := s.students.ListWithoutPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list delinquent: %w", err)
	}
	if students == nil {
		students = []model.Student{}
	}
	return students, nil
}
