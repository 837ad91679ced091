package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matricula/matricula/internal/model"
)

// PaymentRepository handles payment data access on PostgreSQL.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Create inserts a payment; PaidAt is set by the database.
func (r *PaymentRepository) Create(ctx context.Context, p *model.Payment) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO payments (student_id, period) VALUES ($1, $2)
		 RETURNING id, paid_at`,
		p.StudentID, p.Period,
	).Scan(&p.ID, &p.PaidAt)
}

// ListByStudent returns a student's payments, oldest first.
func (r *PaymentRepository) ListByStudent(ctx context.Context, studentID int) ([]model.Payment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, student_id, paid_at, period FROM payments
		 WHERE student_id = $1 ORDER BY paid_at, id`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.StudentID, &p.PaidAt, &p.Period); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
