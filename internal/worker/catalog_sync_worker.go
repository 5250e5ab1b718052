package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/verdantleaf/quote_api/internal/service"
)

// CatalogSyncWorker periodically reloads the pricing snapshot from the
// database so out-of-band edits (migrations, manual SQL) converge without a
// restart.
type CatalogSyncWorker struct {
	catalogService *service.CatalogService
	interval       time.Duration
}

// NewCatalogSyncWorker constructs a CatalogSyncWorker.
func NewCatalogSyncWorker(catalogService *service.CatalogService, interval time.Duration) *CatalogSyncWorker {
	return &CatalogSyncWorker{
		catalogService: catalogService,
		interval:       interval,
	}
}

// Start begins the periodic reload loop and listens for context cancellation.
func (w *CatalogSyncWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting catalog sync worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Catalog sync worker stopped")
			return
		}
	}
}

func (w *CatalogSyncWorker) run(ctx context.Context) {
	start := time.Now()
	if err := w.catalogService.Reload(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to reload catalog snapshot")
		return
	}
	log.Info().Dur("duration", time.Since(start)).Msg("Catalog sync completed")
}
