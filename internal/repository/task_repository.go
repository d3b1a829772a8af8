package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/crm-service/internal/domain"
)

// TaskRepository persists follow-up tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Task, error)
	DeleteByCustomer(ctx context.Context, customerID string) (int64, error)
}

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation.
func NewTaskRepository(pool *pgxpool.Pool) TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	const query = `
        INSERT INTO tasks (customer_id, title, due_at, done)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		task.CustomerID,
		task.Title,
		task.DueAt,
		task.Done,
	).Scan(&task.ID, &task.CreatedAt)
}

func (r *taskRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Task, error) {
	const query = `
        SELECT id, customer_id, title, due_at, done, created_at
        FROM tasks WHERE customer_id=$1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Task
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(&t.ID, &t.CustomerID, &t.Title, &t.DueAt, &t.Done, &t.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (r *taskRepository) DeleteByCustomer(ctx context.Context, customerID string) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE customer_id=$1`, customerID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
