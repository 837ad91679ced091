package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matricula/matricula/internal/model"
)

const studentColumns = `id, name, contact, phone, payment_method, enrollment_date, plan_end_date, monthly_fee, created_at, updated_at`

// StudentRepository handles student data access on PostgreSQL.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

func scanStudent(row pgx.Row) (*model.Student, error) {
	var (
		s        model.Student
		enrolled time.Time
		planEnd  *time.Time
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Contact, &s.Phone, &s.PaymentMethod,
		&enrolled, &planEnd, &s.MonthlyFee, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.EnrollmentDate = model.NewDate(enrolled)
	if planEnd != nil {
		d := model.NewDate(*planEnd)
		s.PlanEndDate = &d
	}
	return &s, nil
}

func collectStudents(rows pgx.Rows) ([]model.Student, error) {
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, *s)
	}
	return students, rows.Err()
}

// GetByID retrieves a student by ID.
func (r *StudentRepository) GetByID(ctx context.Context, id int) (*model.Student, error) {
	s, err := scanStudent(r.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

// ListPaginated retrieves students ordered by ID, plus the total count.
func (r *StudentRepository) ListPaginated(ctx context.Context, limit, offset int) ([]model.Student, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM students`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+studentColumns+` FROM students ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	students, err := collectStudents(rows)
	return students, total, err
}

// ListAll retrieves every student ordered by ID.
func (r *StudentRepository) ListAll(ctx context.Context) ([]model.Student, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+studentColumns+` FROM students ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectStudents(rows)
}

// ListWithoutPayments retrieves students that have no payment recorded.
func (r *StudentRepository) ListWithoutPayments(ctx context.Context) ([]model.Student, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+studentColumns+` FROM students s
		 WHERE NOT EXISTS (SELECT 1 FROM payments p WHERE p.student_id = s.id)
		 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectStudents(rows)
}

// Create inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	var planEnd *time.Time
	if s.PlanEndDate != nil {
		planEnd = &s.PlanEndDate.Time
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO students (name, contact, phone, payment_method, enrollment_date, plan_end_date, monthly_fee)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		s.Name, s.Contact, s.Phone, s.PaymentMethod, s.EnrollmentDate.Time, planEnd, int64(s.MonthlyFee),
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}
