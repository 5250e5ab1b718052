package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/verdantleaf/quote_api/internal/models"
	"github.com/verdantleaf/quote_api/internal/repository"
	"github.com/verdantleaf/quote_api/internal/service"
)

// ActivityRetryWorker drains the CRM activity queue: pending posts that
// failed inline delivery are retried until they succeed or exhaust their
// attempt budget.
type ActivityRetryWorker struct {
	quoteService *service.QuoteService
	activityRepo *repository.ActivityRepository
	quoteRepo    *repository.QuoteRepository
	interval     time.Duration
	maxAttempts  int
}

// NewActivityRetryWorker constructs an ActivityRetryWorker.
func NewActivityRetryWorker(
	quoteService *service.QuoteService,
	activityRepo *repository.ActivityRepository,
	quoteRepo *repository.QuoteRepository,
	interval time.Duration,
	maxAttempts int,
) *ActivityRetryWorker {
	return &ActivityRetryWorker{
		quoteService: quoteService,
		activityRepo: activityRepo,
		quoteRepo:    quoteRepo,
		interval:     interval,
		maxAttempts:  maxAttempts,
	}
}

// Start begins the periodic retry loop until context is canceled.
func (w *ActivityRetryWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting activity retry worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Activity retry worker stopped")
			return
		}
	}
}

func (w *ActivityRetryWorker) run(ctx context.Context) {
	activities, err := w.activityRepo.GetPending(w.maxAttempts, 50)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get pending CRM activities")
		return
	}
	if len(activities) == 0 {
		return
	}
	log.Info().Int("count", len(activities)).Msg("Processing pending CRM activities")

	for i := range activities {
		// Respect cancellation between items
		select {
		case <-ctx.Done():
			return
		default:
			w.processActivity(ctx, &activities[i])
		}
	}
}

func (w *ActivityRetryWorker) processActivity(ctx context.Context, activity *models.CRMActivity) {
	log.Info().
		Int("activity_id", activity.ID).
		Int("attempts", activity.Attempts).
		Msg("Retrying CRM activity")

	customerEmail := ""
	if quote, err := w.quoteRepo.GetByID(activity.QuoteID); err == nil {
		customerEmail = quote.CustomerEmail
	}

	if err := w.quoteService.DeliverActivity(ctx, activity, customerEmail); err != nil {
		log.Error().
			Err(err).
			Int("activity_id", activity.ID).
			Msg("Failed to deliver CRM activity")
	}
}
