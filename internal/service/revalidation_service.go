package service

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/crm-service/internal/events"
)

// RevalidationService is the consumer of the "invalidate these view keys"
// signal. After every successful lifecycle transition it drops the cached
// views named in the event so whatever rendering layer sits in front
// re-fetches fresh data.
type RevalidationService struct {
	dispatcher events.Dispatcher
	cache      *redis.Client
	logger     *zap.Logger
}

// NewRevalidationService creates the service.
func NewRevalidationService(dispatcher events.Dispatcher, cache *redis.Client, logger *zap.Logger) *RevalidationService {
	return &RevalidationService{
		dispatcher: dispatcher,
		cache:      cache,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to the lifecycle events.
func (r *RevalidationService) RegisterHandlers() {
	if r.dispatcher == nil {
		return
	}
	r.dispatcher.Subscribe(events.EventCustomerTrashed, r.handleLifecycle)
	r.dispatcher.Subscribe(events.EventCustomerRestored, r.handleLifecycle)
	r.dispatcher.Subscribe(events.EventCustomerErased, r.handleLifecycle)
}

func (r *RevalidationService) handleLifecycle(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CustomerLifecyclePayload)
	if !ok {
		return nil
	}
	r.logger.Info("revalidating views",
		zap.String("event", string(event.Type)),
		zap.String("customer_id", payload.CustomerID),
		zap.Strings("view_keys", payload.ViewKeys))

	if r.cache == nil || len(payload.ViewKeys) == 0 {
		return nil
	}
	if err := r.cache.Del(ctx, payload.ViewKeys...).Err(); err != nil {
		r.logger.Warn("view invalidation failed", zap.Error(err))
		return err
	}
	return nil
}
