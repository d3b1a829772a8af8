package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/crm-service/internal/domain"
)

// AppointmentRepository persists customer appointments.
type AppointmentRepository interface {
	Create(ctx context.Context, appointment *domain.Appointment) error
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Appointment, error)
	// DeleteByCustomer removes every appointment referencing the customer.
	// Deleting an already-absent set is a no-op, so erase retries stay safe.
	DeleteByCustomer(ctx context.Context, customerID string) (int64, error)
}

type appointmentRepository struct {
	pool *pgxpool.Pool
}

// NewAppointmentRepository returns a Postgres-backed implementation.
func NewAppointmentRepository(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepository{pool: pool}
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *domain.Appointment) error {
	const query = `
        INSERT INTO appointments (customer_id, title, scheduled_at, location, notes)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		appointment.CustomerID,
		appointment.Title,
		appointment.ScheduledAt,
		appointment.Location,
		appointment.Notes,
	).Scan(&appointment.ID, &appointment.CreatedAt)
}

func (r *appointmentRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Appointment, error) {
	const query = `
        SELECT id, customer_id, title, scheduled_at, location, notes, created_at
        FROM appointments WHERE customer_id=$1 ORDER BY scheduled_at`

	rows, err := r.pool.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Appointment
	for rows.Next() {
		var a domain.Appointment
		if err := rows.Scan(&a.ID, &a.CustomerID, &a.Title, &a.ScheduledAt, &a.Location, &a.Notes, &a.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *appointmentRepository) DeleteByCustomer(ctx context.Context, customerID string) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE customer_id=$1`, customerID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
