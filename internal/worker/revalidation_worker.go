package worker

import (
	"github.com/spec-kit/crm-service/internal/service"
)

// StartRevalidationWorker registers the view invalidation handlers.
func StartRevalidationWorker(revalidationService *service.RevalidationService) {
	if revalidationService == nil {
		return
	}
	revalidationService.RegisterHandlers()
}
