package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/verdantleaf/quote_api/internal/models"
	"github.com/verdantleaf/quote_api/internal/pricing"
	"github.com/verdantleaf/quote_api/internal/repository"
	"github.com/verdantleaf/quote_api/internal/utils"
	"github.com/verdantleaf/quote_api/pkg/copper"
)

// CRMClient posts quote activities to the CRM. Satisfied by *copper.Client.
type CRMClient interface {
	LogActivity(ctx context.Context, details string, personID int) (*copper.Activity, error)
	FindPersonByEmail(ctx context.Context, email string) (*copper.Person, error)
}

// QuoteService computes one-shot quotes and finalizes sessions into persisted
// quotes. Finalizing also queues a CRM activity; delivery is attempted inline
// and handed to the retry worker on failure.
type QuoteService struct {
	quoteRepo    *repository.QuoteRepository
	activityRepo *repository.ActivityRepository
	sessions     *SessionService
	catalog      SnapshotProvider
	crm          CRMClient
	export       *ExportService
	maxAttempts  int
}

// NewQuoteService constructs a QuoteService. crm may be nil when no CRM is
// configured; activities are then queued but never delivered.
func NewQuoteService(
	quoteRepo *repository.QuoteRepository,
	activityRepo *repository.ActivityRepository,
	sessions *SessionService,
	catalogSvc SnapshotProvider,
	crm CRMClient,
	export *ExportService,
	maxAttempts int,
) *QuoteService {
	return &QuoteService{
		quoteRepo:    quoteRepo,
		activityRepo: activityRepo,
		sessions:     sessions,
		catalog:      catalogSvc,
		crm:          crm,
		export:       export,
		maxAttempts:  maxAttempts,
	}
}

// Compute prices a set of line items without creating a session or persisting
// anything.
func (s *QuoteService) Compute(lines []models.LineItemRequest, regionCode string, opts models.QuoteOptions) (*models.QuoteBreakdown, error) {
	snap, err := s.catalog.Snapshot()
	if err != nil {
		return nil, err
	}
	return pricing.ComputeQuote(snap, lines, regionCode, opts)
}

// Finalize recomputes a session against the current catalog, persists the
// result as an immutable quote, queues a CRM activity, and discards the
// session. The recompute guards against a catalog change since the last
// session mutation.
func (s *QuoteService) Finalize(ctx context.Context, sessionID, customerName, customerEmail string) (*models.Quote, error) {
	snap, err := s.catalog.Snapshot()
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if customerName != "" {
		session.CustomerName = customerName
	}
	if customerEmail != "" {
		session.CustomerEmail = customerEmail
	}

	breakdown, err := pricing.ComputeQuote(snap, session.Lines, session.RegionCode, session.Options)
	if err != nil {
		return nil, err
	}

	quote := buildQuote(session, breakdown)
	if err := s.quoteRepo.Create(quote); err != nil {
		return nil, fmt.Errorf("failed to persist quote: %w", err)
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to discard finalized session")
	}

	s.queueActivity(ctx, quote)

	log.Info().
		Str("quote_id", quote.QuoteID).
		Int("client_id", quote.ClientID).
		Str("grand_total", quote.GrandTotal.StringFixed(2)).
		Msg("Quote finalized")
	return quote, nil
}

// Get returns a persisted quote by public ID.
func (s *QuoteService) Get(quoteID string) (*models.Quote, error) {
	return s.quoteRepo.GetByQuoteID(quoteID)
}

// List returns a client's quotes, newest first.
func (s *QuoteService) List(clientID, page, limit int) ([]models.Quote, int, error) {
	return s.quoteRepo.ListByClient(clientID, page, limit)
}

// MarkSent flags a quote as sent to the customer.
func (s *QuoteService) MarkSent(quoteID string) (*models.Quote, error) {
	quote, err := s.quoteRepo.GetByQuoteID(quoteID)
	if err != nil {
		return nil, err
	}
	if err := s.quoteRepo.UpdateStatus(quote.ID, models.QuoteStatusSent); err != nil {
		return nil, err
	}
	quote.Status = models.QuoteStatusSent
	return quote, nil
}

// DeliverActivity posts one queued activity to the CRM and updates the queue
// row. Used both inline at finalize time and by the retry worker.
func (s *QuoteService) DeliverActivity(ctx context.Context, activity *models.CRMActivity, customerEmail string) error {
	if s.crm == nil {
		return utils.ErrCRMNotConfigured
	}

	personID := 0
	if customerEmail != "" {
		person, err := s.crm.FindPersonByEmail(ctx, customerEmail)
		if err != nil {
			log.Warn().Err(err).Msg("CRM person lookup failed; logging activity unattached")
		} else if person != nil {
			personID = person.ID
		}
	}

	if _, err := s.crm.LogActivity(ctx, activity.Summary, personID); err != nil {
		if markErr := s.activityRepo.MarkAttemptFailed(activity.ID, err.Error(), s.maxAttempts); markErr != nil {
			log.Error().Err(markErr).Int("activity_id", activity.ID).Msg("Failed to record delivery attempt")
		}
		return err
	}
	return s.activityRepo.MarkDelivered(activity.ID)
}

// queueActivity enqueues the CRM activity for a finalized quote and tries to
// deliver it inline. Failures are not surfaced to the caller; the retry
// worker picks up the pending row.
func (s *QuoteService) queueActivity(ctx context.Context, quote *models.Quote) {
	activity := &models.CRMActivity{
		QuoteID: quote.ID,
		Summary: s.export.ActivitySummary(quote),
	}
	if err := s.activityRepo.Enqueue(activity); err != nil {
		log.Error().Err(err).Str("quote_id", quote.QuoteID).Msg("Failed to queue CRM activity")
		return
	}
	if s.crm == nil {
		return
	}
	if err := s.DeliverActivity(ctx, activity, quote.CustomerEmail); err != nil {
		log.Warn().Err(err).Str("quote_id", quote.QuoteID).Msg("CRM activity delivery failed; queued for retry")
	}
}

// buildQuote maps a session and its computed breakdown onto the persisted
// quote shape.
func buildQuote(session *models.Session, breakdown *models.QuoteBreakdown) *models.Quote {
	discountRate := decimal.Zero
	if breakdown.AppliedTier != nil {
		discountRate = breakdown.AppliedTier.DiscountRate
	}

	quote := &models.Quote{
		QuoteID:                newQuoteID(),
		ClientID:               session.ClientID,
		CustomerName:           session.CustomerName,
		CustomerEmail:          session.CustomerEmail,
		RegionCode:             breakdown.RegionCode,
		ZoneKey:                breakdown.ZoneKey,
		SubtotalBeforeDiscount: breakdown.SubtotalBeforeDiscount,
		DiscountRate:           discountRate,
		SubtotalAfterDiscount:  breakdown.SubtotalAfterDiscount,
		ShippingCost:           breakdown.ShippingCost,
		CreditCardFee:          breakdown.CreditCardFee,
		GrandTotal:             breakdown.GrandTotal,
		Status:                 models.QuoteStatusFinal,
	}
	for _, line := range breakdown.Lines {
		quote.Lines = append(quote.Lines, models.QuoteLine{
			ProductKey:         line.ProductKey,
			ProductName:        line.ProductName,
			MasterCaseQuantity: line.MasterCaseQuantity,
			DisplayBoxQuantity: line.DisplayBoxQuantity,
			TotalUnits:         line.TotalUnits,
			ResolvedUnitPrice:  line.ResolvedUnitPrice,
			LineTotal:          line.LineTotal,
		})
	}
	return quote
}

// newQuoteID generates a public quote ID like Q-20260829-4F2A1C.
func newQuoteID() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("Q-%s-%s", time.Now().Format("20060102"), suffix)
}
