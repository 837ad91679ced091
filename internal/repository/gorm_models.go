package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/matricula/matricula/internal/model"
)

// Row types mirror the PostgreSQL schema in migrations/ so both stores
// share table and column names.

type userRow struct {
	ID             int    `gorm:"primaryKey"`
	Username       string `gorm:"uniqueIndex;not null"`
	HashedPassword string `gorm:"column:hashed_password;not null"`
	CreatedAt      time.Time
}

func (userRow) TableName() string { return "users" }

func (r userRow) toModel() *model.User {
	return &model.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.HashedPassword,
		CreatedAt:    r.CreatedAt,
	}
}

type studentRow struct {
	ID             int    `gorm:"primaryKey"`
	Name           string `gorm:"index;not null"`
	Contact        string `gorm:"not null"`
	Phone          string `gorm:"not null"`
	PaymentMethod  string `gorm:"not null"`
	EnrollmentDate time.Time
	PlanEndDate    *time.Time
	MonthlyFee     int64 `gorm:"not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (studentRow) TableName() string { return "students" }

func newStudentRow(s *model.Student) *studentRow {
	row := &studentRow{
		ID:             s.ID,
		Name:           s.Name,
		Contact:        s.Contact,
		Phone:          s.Phone,
		PaymentMethod:  string(s.PaymentMethod),
		EnrollmentDate: s.EnrollmentDate.Time,
		MonthlyFee:     int64(s.MonthlyFee),
	}
	if s.PlanEndDate != nil {
		t := s.PlanEndDate.Time
		row.PlanEndDate = &t
	}
	return row
}

func (r studentRow) toModel() model.Student {
	s := model.Student{
		ID:             r.ID,
		Name:           r.Name,
		Contact:        r.Contact,
		Phone:          r.Phone,
		PaymentMethod:  model.PaymentMethod(r.PaymentMethod),
		EnrollmentDate: model.NewDate(r.EnrollmentDate),
		MonthlyFee:     model.Money(r.MonthlyFee),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if r.PlanEndDate != nil {
		d := model.NewDate(*r.PlanEndDate)
		s.PlanEndDate = &d
	}
	return s
}

func studentsFromRows(rows []studentRow) []model.Student {
	students := make([]model.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.toModel())
	}
	return students
}

type paymentRow struct {
	ID        int `gorm:"primaryKey"`
	StudentID int `gorm:"index;not null"`
	PaidAt    time.Time
	Period    string `gorm:"not null"`
}

func (paymentRow) TableName() string { return "payments" }

type auditRow struct {
	ID        int64  `gorm:"primaryKey"`
	Kind      string `gorm:"index;not null"`
	ActorID   int
	SubjectID int
	Payload   string
	CreatedAt time.Time
}

func (auditRow) TableName() string { return "audit_events" }

// AutoMigrate creates or updates the SQLite schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&userRow{}, &studentRow{}, &paymentRow{}, &auditRow{})
}
