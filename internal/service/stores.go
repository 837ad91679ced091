package service

import (
	"context"
	"time"

	"github.com/matricula/matricula/internal/model"
)

// UserStore is the persistence the services need for operator accounts.
type UserStore interface {
	GetByID(ctx context.Context, id int) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
	Count(ctx context.Context) (int, error)
}

// StudentStore is the persistence the services need for students.
type StudentStore interface {
	GetByID(ctx context.Context, id int) (*model.Student, error)
	ListPaginated(ctx context.Context, limit, offset int) ([]model.Student, int, error)
	ListAll(ctx context.Context) ([]model.Student, error)
	ListWithoutPayments(ctx context.Context) ([]model.Student, error)
	Create(ctx context.Context, s *model.Student) error
}

// PaymentStore is the persistence the services need for payments.
type PaymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
	ListByStudent(ctx context.Context, studentID int) ([]model.Payment, error)
}

// SessionStore keeps the set of live token IDs.
type SessionStore interface {
	Register(ctx context.Context, userID int, jti string, ttl time.Duration) error
	Exists(ctx context.Context, userID int, jti string) (bool, error)
	Revoke(ctx context.Context, userID int, jti string) error
}

// Notifier receives audit events. Delivery failures never fail the action
// that produced the event.
type Notifier interface {
	Notify(ctx context.Context, e model.AuditEvent) error
}
