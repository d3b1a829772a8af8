package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/crm-service/internal/domain"
)

// CustomerFilter captures active-customer listing parameters.
type CustomerFilter struct {
	LeadStatus    *domain.LeadStatus
	ShowroomID    *string
	SalespersonID *string
	SearchTerm    *string
	Limit         int
	Offset        int
}

// CustomerRepository encapsulates customer persistence. Every active-side
// query carries `deleted_at IS NULL` in its SQL, so trashed customers are
// excluded by construction rather than by convention at call sites.
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	Update(ctx context.Context, customer *domain.Customer) error
	GetActiveByID(ctx context.Context, id string) (*domain.Customer, error)
	GetTrashedByID(ctx context.Context, id string) (*domain.Customer, error)
	ListActive(ctx context.Context, filter CustomerFilter) ([]domain.Customer, error)
	ListTrashed(ctx context.Context, limit, offset int) ([]domain.Customer, error)
	Trash(ctx context.Context, id, deletedBy string, at time.Time) error
	Restore(ctx context.Context, id string) error
	DeleteTrashed(ctx context.Context, id string) error
	CountActive(ctx context.Context) (int64, error)
	CountTrashed(ctx context.Context) (int64, error)
	CountActiveByLeadStatus(ctx context.Context) (map[domain.LeadStatus]int64, error)
	SumActivePurchaseAmount(ctx context.Context) (float64, error)
}

type customerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a Postgres-backed implementation.
func NewCustomerRepository(pool *pgxpool.Pool) CustomerRepository {
	return &customerRepository{pool: pool}
}

const customerColumns = `id, name, email, phone, address, lead_status, showroom_id, salesperson_id,
               purchase_amount, deleted_at, deleted_by, created_at, updated_at`

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	const query = `
        INSERT INTO customers (name, email, phone, address, lead_status, showroom_id, salesperson_id, purchase_amount)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		customer.Name,
		customer.Email,
		customer.Phone,
		customer.Address,
		customer.LeadStatus,
		customer.ShowroomID,
		customer.SalespersonID,
		customer.PurchaseAmount,
	).Scan(&customer.ID, &customer.CreatedAt, &customer.UpdatedAt)
}

func (r *customerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	const query = `
        UPDATE customers SET name=$1, email=$2, phone=$3, address=$4, lead_status=$5,
            showroom_id=$6, salesperson_id=$7, purchase_amount=$8, updated_at=NOW()
        WHERE id=$9 AND deleted_at IS NULL`

	cmd, err := r.pool.Exec(ctx, query,
		customer.Name,
		customer.Email,
		customer.Phone,
		customer.Address,
		customer.LeadStatus,
		customer.ShowroomID,
		customer.SalespersonID,
		customer.PurchaseAmount,
		customer.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *customerRepository) GetActiveByID(ctx context.Context, id string) (*domain.Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE id=$1 AND deleted_at IS NULL`, customerColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *customerRepository) GetTrashedByID(ctx context.Context, id string) (*domain.Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE id=$1 AND deleted_at IS NOT NULL`, customerColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *customerRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Customer, error) {
	var customer domain.Customer
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.Phone,
		&customer.Address,
		&customer.LeadStatus,
		&customer.ShowroomID,
		&customer.SalespersonID,
		&customer.PurchaseAmount,
		&customer.DeletedAt,
		&customer.DeletedBy,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) ListActive(ctx context.Context, filter CustomerFilter) ([]domain.Customer, error) {
	base := fmt.Sprintf(`SELECT %s FROM customers`, customerColumns)
	clauses := []string{"deleted_at IS NULL"}
	args := []any{}

	if filter.LeadStatus != nil {
		args = append(args, *filter.LeadStatus)
		clauses = append(clauses, fmt.Sprintf("lead_status=$%d", len(args)))
	}
	if filter.ShowroomID != nil {
		args = append(args, *filter.ShowroomID)
		clauses = append(clauses, fmt.Sprintf("showroom_id=$%d", len(args)))
	}
	if filter.SalespersonID != nil {
		args = append(args, *filter.SalespersonID)
		clauses = append(clauses, fmt.Sprintf("salesperson_id=$%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(name) LIKE %s OR LOWER(COALESCE(email,'')) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCustomers(rows)
}

func (r *customerRepository) ListTrashed(ctx context.Context, limit, offset int) ([]domain.Customer, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE deleted_at IS NOT NULL
        ORDER BY deleted_at DESC LIMIT %d OFFSET %d`, customerColumns, limit, offset)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCustomers(rows)
}

// Trash soft-deletes in one atomic statement; the deleted_at IS NULL guard
// means only a currently active customer can be trashed.
func (r *customerRepository) Trash(ctx context.Context, id, deletedBy string, at time.Time) error {
	const query = `
        UPDATE customers SET deleted_at=$2, deleted_by=$3, updated_at=NOW()
        WHERE id=$1 AND deleted_at IS NULL`

	cmd, err := r.pool.Exec(ctx, query, id, at, deletedBy)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Restore clears both deletion fields together so the record is never
// half deleted.
func (r *customerRepository) Restore(ctx context.Context, id string) error {
	const query = `
        UPDATE customers SET deleted_at=NULL, deleted_by=NULL, updated_at=NOW()
        WHERE id=$1 AND deleted_at IS NOT NULL`

	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DeleteTrashed removes the customer row itself. Only trashed rows can be
// removed; there is no direct active-to-erased path.
func (r *customerRepository) DeleteTrashed(ctx context.Context, id string) error {
	const query = `DELETE FROM customers WHERE id=$1 AND deleted_at IS NOT NULL`

	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *customerRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM customers WHERE deleted_at IS NULL`).Scan(&count)
	return count, err
}

func (r *customerRepository) CountTrashed(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM customers WHERE deleted_at IS NOT NULL`).Scan(&count)
	return count, err
}

func (r *customerRepository) CountActiveByLeadStatus(ctx context.Context) (map[domain.LeadStatus]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT lead_status, COUNT(*) FROM customers WHERE deleted_at IS NULL GROUP BY lead_status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.LeadStatus]int64)
	for rows.Next() {
		var status domain.LeadStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *customerRepository) SumActivePurchaseAmount(ctx context.Context) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(purchase_amount), 0) FROM customers WHERE deleted_at IS NULL`).Scan(&total)
	return total, err
}

func scanCustomers(rows pgx.Rows) ([]domain.Customer, error) {
	var result []domain.Customer
	for rows.Next() {
		var customer domain.Customer
		if err := rows.Scan(
			&customer.ID,
			&customer.Name,
			&customer.Email,
			&customer.Phone,
			&customer.Address,
			&customer.LeadStatus,
			&customer.ShowroomID,
			&customer.SalespersonID,
			&customer.PurchaseAmount,
			&customer.DeletedAt,
			&customer.DeletedBy,
			&customer.CreatedAt,
			&customer.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, customer)
	}
	return result, rows.Err()
}
