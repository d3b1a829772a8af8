package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/crm-service/internal/domain"
	"github.com/spec-kit/crm-service/internal/events"
	"github.com/spec-kit/crm-service/internal/repository"
)

// DashboardSummary aggregates the admin dashboard counters.
type DashboardSummary struct {
	ActiveCustomers  int64                       `json:"active_customers"`
	TrashedCustomers int64                       `json:"trashed_customers"`
	LeadsByStatus    map[domain.LeadStatus]int64 `json:"leads_by_status"`
	PurchaseTotal    float64                     `json:"purchase_total"`
	SalesTotal       float64                     `json:"sales_total"`
	GeneratedAt      time.Time                   `json:"generated_at"`
}

// DashboardService computes the admin summary and caches it in Redis under
// the dashboard view key. Lifecycle transitions invalidate the key through
// the revalidation worker, so a stale summary never outlives a transition.
type DashboardService struct {
	customers repository.CustomerRepository
	sales     repository.SaleRepository
	cache     *redis.Client
	ttl       time.Duration
	logger    *zap.Logger
}

// NewDashboardService constructs the service.
func NewDashboardService(customers repository.CustomerRepository, sales repository.SaleRepository, cache *redis.Client, ttl time.Duration, logger *zap.Logger) *DashboardService {
	return &DashboardService{customers: customers, sales: sales, cache: cache, ttl: ttl, logger: logger}
}

// Summary returns the cached summary when fresh, recomputing on miss.
func (s *DashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	if cached := s.fromCache(ctx); cached != nil {
		return cached, nil
	}

	active, err := s.customers.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	trashed, err := s.customers.CountTrashed(ctx)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.customers.CountActiveByLeadStatus(ctx)
	if err != nil {
		return nil, err
	}
	purchaseTotal, err := s.customers.SumActivePurchaseAmount(ctx)
	if err != nil {
		return nil, err
	}
	salesTotal, err := s.sales.TotalForActiveCustomers(ctx)
	if err != nil {
		return nil, err
	}

	summary := &DashboardSummary{
		ActiveCustomers:  active,
		TrashedCustomers: trashed,
		LeadsByStatus:    byStatus,
		PurchaseTotal:    purchaseTotal,
		SalesTotal:       salesTotal,
		GeneratedAt:      time.Now(),
	}
	s.toCache(ctx, summary)
	return summary, nil
}

func (s *DashboardService) fromCache(ctx context.Context) *DashboardSummary {
	if s.cache == nil {
		return nil
	}
	payload, err := s.cache.Get(ctx, events.ViewAdminDashboard).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
		return nil
	}
	var summary DashboardSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil
	}
	return &summary
}

func (s *DashboardService) toCache(ctx context.Context, summary *DashboardSummary) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, events.ViewAdminDashboard, payload, s.ttl).Err(); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
}
