package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/crm-service/internal/domain"
)

// SaleRepository persists sales transactions.
type SaleRepository interface {
	Create(ctx context.Context, sale *domain.SaleTransaction) error
	ListByCustomer(ctx context.Context, customerID string) ([]domain.SaleTransaction, error)
	DeleteByCustomer(ctx context.Context, customerID string) (int64, error)
	TotalForActiveCustomers(ctx context.Context) (float64, error)
}

type saleRepository struct {
	pool *pgxpool.Pool
}

// NewSaleRepository returns a Postgres-backed implementation.
func NewSaleRepository(pool *pgxpool.Pool) SaleRepository {
	return &saleRepository{pool: pool}
}

func (r *saleRepository) Create(ctx context.Context, sale *domain.SaleTransaction) error {
	const query = `
        INSERT INTO sales_transactions (customer_id, amount, sold_at)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		sale.CustomerID,
		sale.Amount,
		sale.SoldAt,
	).Scan(&sale.ID, &sale.CreatedAt)
}

func (r *saleRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.SaleTransaction, error) {
	const query = `
        SELECT id, customer_id, amount, sold_at, created_at
        FROM sales_transactions WHERE customer_id=$1 ORDER BY sold_at DESC`

	rows, err := r.pool.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SaleTransaction
	for rows.Next() {
		var s domain.SaleTransaction
		if err := rows.Scan(&s.ID, &s.CustomerID, &s.Amount, &s.SoldAt, &s.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *saleRepository) DeleteByCustomer(ctx context.Context, customerID string) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM sales_transactions WHERE customer_id=$1`, customerID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *saleRepository) TotalForActiveCustomers(ctx context.Context) (float64, error) {
	const query = `
        SELECT COALESCE(SUM(s.amount), 0)
        FROM sales_transactions s
        JOIN customers c ON c.id = s.customer_id
        WHERE c.deleted_at IS NULL`

	var total float64
	err := r.pool.QueryRow(ctx, query).Scan(&total)
	return total, err
}
