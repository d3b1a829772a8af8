package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/crm-service/internal/domain"
)

// ShowroomRepository provides showroom lookups for customer assignment.
type ShowroomRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Showroom, error)
	List(ctx context.Context) ([]domain.Showroom, error)
}

type showroomRepository struct {
	pool *pgxpool.Pool
}

// NewShowroomRepository returns a Postgres-backed implementation.
func NewShowroomRepository(pool *pgxpool.Pool) ShowroomRepository {
	return &showroomRepository{pool: pool}
}

func (r *showroomRepository) GetByID(ctx context.Context, id string) (*domain.Showroom, error) {
	const query = `
        SELECT id, name, city, is_active, created_at, updated_at
        FROM showrooms WHERE id=$1`

	var s domain.Showroom
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Name, &s.City, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *showroomRepository) List(ctx context.Context) ([]domain.Showroom, error) {
	const query = `
        SELECT id, name, city, is_active, created_at, updated_at
        FROM showrooms WHERE is_active ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Showroom
	for rows.Next() {
		var s domain.Showroom
		if err := rows.Scan(&s.ID, &s.Name, &s.City, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
