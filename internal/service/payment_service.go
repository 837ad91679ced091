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

// PaymentService records monthly fee payments.
type PaymentService struct {
	students StudentStore
	payments PaymentStore
	events   Notifier
	log      zerolog.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(students StudentStore, payments PaymentStore, events Notifier, log zerolog.Logger) *PaymentService {
	return &PaymentService{
		students: students,
		payments: payments,
		events:   events,
		log:      log.With().Str("component", "payment_service").Logger(),
	}
}

// Record stores a payment for an existing student.
func (s *PaymentService) Record(ctx context.Context, actorID int, req model.RecordPaymentRequest) (*model.Payment, error) {
	if _, err := s.students.GetByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("get student: %w", err)
	}

	p := &model.Payment{StudentID: req.StudentID, Period: req.Period}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	payload, _ := json.Marshal(p)
	notify(ctx, s.events, s.log, model.AuditEvent{
		Kind:      model.AuditPaymentRecorded,
		ActorID:   actorID,
		SubjectID: req.StudentID,
		Payload:   string(payload),
	})

	return p, nil
}
