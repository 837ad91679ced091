package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/matricula/matricula/internal/model"
)

// GormUserRepository handles operator accounts on the embedded SQLite store.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository.
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) GetByID(ctx context.Context, id int) (*model.User, error) {
	var row userRow
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, notFound(err)
	}
	return row.toModel(), nil
}

func (r *GormUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var row userRow
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&row).Error; err != nil {
		return nil, notFound(err)
	}
	return row.toModel(), nil
}

func (r *GormUserRepository) Create(ctx context.Context, u *model.User) error {
	row := userRow{Username: u.Username, HashedPassword: u.PasswordHash}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		return err
	}
	u.ID = row.ID
	u.CreatedAt = row.CreatedAt
	return nil
}

func (r *GormUserRepository) Count(ctx context.Context) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&userRow{}).Count(&n).Error
	return int(n), err
}

// GormStudentRepository handles students on the embedded SQLite store.
type GormStudentRepository struct {
	db *gorm.DB
}

// NewGormStudentRepository creates a new GormStudentRepository.
func NewGormStudentRepository(db *gorm.DB) *GormStudentRepository {
	return &GormStudentRepository{db: db}
}

func (r *GormStudentRepository) GetByID(ctx context.Context, id int) (*model.Student, error) {
	var row studentRow
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, notFound(err)
	}
	s := row.toModel()
	return &s, nil
}

func (r *GormStudentRepository) ListPaginated(ctx context.Context, limit, offset int) ([]model.Student, int, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&studentRow{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []studentRow
	if err := r.db.WithContext(ctx).Order("id").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return studentsFromRows(rows), int(total), nil
}

func (r *GormStudentRepository) ListAll(ctx context.Context) ([]model.Student, error) {
	var rows []studentRow
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return studentsFromRows(rows), nil
}

func (r *GormStudentRepository) ListWithoutPayments(ctx context.Context) ([]model.Student, error) {
	var rows []studentRow
	err := r.db.WithContext(ctx).
		Where("NOT EXISTS (SELECT 1 FROM payments p WHERE p.student_id = students.id)").
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return studentsFromRows(rows), nil
}

func (r *GormStudentRepository) Create(ctx context.Context, s *model.Student) error {
	row := newStudentRow(s)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	s.ID = row.ID
	s.CreatedAt = row.CreatedAt
	s.UpdatedAt = row.UpdatedAt
	return nil
}

// GormPaymentRepository handles payments on the embedded SQLite store.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository.
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) Create(ctx context.Context, p *model.Payment) error {
	row := paymentRow{StudentID: p.StudentID, Period: p.Period, PaidAt: time.Now().UTC()}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	p.ID = row.ID
	p.PaidAt = row.PaidAt
	return nil
}

func (r *GormPaymentRepository) ListByStudent(ctx context.Context, studentID int) ([]model.Payment, error) {
	var rows []paymentRow
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("paid_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	payments := make([]model.Payment, 0, len(rows))
	for _, row := range rows {
		payments = append(payments, model.Payment{
			ID:        row.ID,
			StudentID: row.StudentID,
			PaidAt:    row.PaidAt,
			Period:    row.Period,
		})
	}
	return payments, nil
}

// GormAuditRepository appends audit events on the embedded SQLite store.
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository.
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

func (r *GormAuditRepository) InsertBatch(ctx context.Context, events []model.AuditEvent) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]auditRow, 0, len(events))
	for _, e := range events {
		rows = append(rows, auditRow{
			Kind:      string(e.Kind),
			ActorID:   e.ActorID,
			SubjectID: e.SubjectID,
			Payload:   e.Payload,
			CreatedAt: e.CreatedAt,
		})
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}
