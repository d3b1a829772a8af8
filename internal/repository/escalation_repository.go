package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/crm-service/internal/domain"
)

// EscalationRepository persists customer escalations.
type EscalationRepository interface {
	Create(ctx context.Context, escalation *domain.Escalation) error
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Escalation, error)
	DeleteByCustomer(ctx context.Context, customerID string) (int64, error)
}

type escalationRepository struct {
	pool *pgxpool.Pool
}

// NewEscalationRepository returns a Postgres-backed implementation.
func NewEscalationRepository(pool *pgxpool.Pool) EscalationRepository {
	return &escalationRepository{pool: pool}
}

func (r *escalationRepository) Create(ctx context.Context, escalation *domain.Escalation) error {
	const query = `
        INSERT INTO escalations (customer_id, subject, severity, resolved)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		escalation.CustomerID,
		escalation.Subject,
		escalation.Severity,
		escalation.Resolved,
	).Scan(&escalation.ID, &escalation.CreatedAt)
}

func (r *escalationRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Escalation, error) {
	const query = `
        SELECT id, customer_id, subject, severity, resolved, created_at
        FROM escalations WHERE customer_id=$1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Escalation
	for rows.Next() {
		var e domain.Escalation
		if err := rows.Scan(&e.ID, &e.CustomerID, &e.Subject, &e.Severity, &e.Resolved, &e.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (r *escalationRepository) DeleteByCustomer(ctx context.Context, customerID string) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM escalations WHERE customer_id=$1`, customerID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
