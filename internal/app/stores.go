// Package app assembles the storage layer shared by the API server and the
// ops commands.
package app

import (
	"github.com/matricula/matricula/internal/database"
	"github.com/matricula/matricula/internal/repository"
	"github.com/matricula/matricula/internal/service"
	"github.com/matricula/matricula/internal/worker"
)

// Stores holds the repositories for whichever driver the backend opened.
type Stores struct {
	Users    service.UserStore
	Students service.StudentStore
	Payments service.PaymentStore
	Audit    worker.AuditStore
}

// NewStores picks the pgx repositories for PostgreSQL and the gorm ones for
// SQLite. The SQLite schema is created on the spot; PostgreSQL is migrated
// with cmd/migrate.
func NewStores(b *database.Backend) (*Stores, error) {
	if b.Pool != nil {
		return &Stores{
			Users:    repository.NewUserRepository(b.Pool),
			Students: repository.NewStudentRepository(b.Pool),
			Payments: repository.NewPaymentRepository(b.Pool),
			Audit:    repository.NewAuditRepository(b.Pool),
		}, nil
	}

	if err := repository.AutoMigrate(b.Gorm); err != nil {
		return nil, err
	}
	return &Stores{
		Users:    repository.NewGormUserRepository(b.Gorm),
		Students: repository.NewGormStudentRepository(b.Gorm),
		Payments: repository.NewGormPaymentRepository(b.Gorm),
		Audit:    repository.NewGormAuditRepository(b.Gorm),
	}, nil
}
