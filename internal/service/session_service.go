package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/verdantleaf/quote_api/internal/catalog"
	"github.com/verdantleaf/quote_api/internal/models"
	"github.com/verdantleaf/quote_api/internal/pricing"
	"github.com/verdantleaf/quote_api/internal/utils"
)

// SessionStore persists quote sessions between requests. The Redis-backed
// implementation lives in internal/cache.
type SessionStore interface {
	Save(ctx context.Context, session *models.Session) error
	Get(ctx context.Context, sessionID string) (*models.Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// SnapshotProvider supplies the current catalog snapshot.
type SnapshotProvider interface {
	Snapshot() (*catalog.Snapshot, error)
}

// SessionService owns the mutable working set of a quote under construction.
// Every mutation re-runs the pricing engine synchronously against the current
// catalog snapshot and stores the refreshed breakdown with the session, so
// presentation layers never see a stale total. Mutations are rejected with
// CATALOG_NOT_READY while the catalog has not loaded.
type SessionService struct {
	store   SessionStore
	catalog SnapshotProvider
}

// NewSessionService constructs a SessionService.
func NewSessionService(store SessionStore, catalogSvc SnapshotProvider) *SessionService {
	return &SessionService{store: store, catalog: catalogSvc}
}

// Create starts a new empty session for a client with default fee options.
func (s *SessionService) Create(ctx context.Context, clientID int, regionCode string) (*models.Session, error) {
	if _, err := s.catalog.Snapshot(); err != nil {
		return nil, err
	}
	now := time.Now()
	session := &models.Session{
		ID:         uuid.New().String(),
		ClientID:   clientID,
		RegionCode: regionCode,
		Lines:      []models.LineItemRequest{},
		Options:    models.DefaultQuoteOptions(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Get returns a session by ID.
func (s *SessionService) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	return s.store.Get(ctx, sessionID)
}

// Delete discards a session.
func (s *SessionService) Delete(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionID)
}

// AddLine appends a line item (or merges quantities into an existing line for
// the same product) and recomputes.
func (s *SessionService) AddLine(ctx context.Context, sessionID string, line models.LineItemRequest) (*models.Session, error) {
	return s.mutate(ctx, sessionID, func(session *models.Session) error {
		for i := range session.Lines {
			if session.Lines[i].ProductKey == line.ProductKey {
				session.Lines[i].MasterCaseQuantity += line.MasterCaseQuantity
				session.Lines[i].DisplayBoxQuantity += line.DisplayBoxQuantity
				if line.CustomUnitPrice != nil {
					session.Lines[i].CustomUnitPrice = line.CustomUnitPrice
				}
				return nil
			}
		}
		session.Lines = append(session.Lines, line)
		return nil
	})
}

// UpdateLine replaces the line for a product and recomputes.
func (s *SessionService) UpdateLine(ctx context.Context, sessionID string, line models.LineItemRequest) (*models.Session, error) {
	return s.mutate(ctx, sessionID, func(session *models.Session) error {
		for i := range session.Lines {
			if session.Lines[i].ProductKey == line.ProductKey {
				session.Lines[i] = line
				return nil
			}
		}
		return fmt.Errorf("%w: %s", utils.ErrLineNotFound, line.ProductKey)
	})
}

// RemoveLine drops the line for a product and recomputes.
func (s *SessionService) RemoveLine(ctx context.Context, sessionID, productKey string) (*models.Session, error) {
	return s.mutate(ctx, sessionID, func(session *models.Session) error {
		for i := range session.Lines {
			if session.Lines[i].ProductKey == productKey {
				session.Lines = append(session.Lines[:i], session.Lines[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: %s", utils.ErrLineNotFound, productKey)
	})
}

// SetRegion changes the destination region and recomputes.
func (s *SessionService) SetRegion(ctx context.Context, sessionID, regionCode string) (*models.Session, error) {
	return s.mutate(ctx, sessionID, func(session *models.Session) error {
		session.RegionCode = regionCode
		return nil
	})
}

// SetOptions replaces the fee/shipping options and recomputes.
func (s *SessionService) SetOptions(ctx context.Context, sessionID string, opts models.QuoteOptions) (*models.Session, error) {
	return s.mutate(ctx, sessionID, func(session *models.Session) error {
		session.Options = opts
		return nil
	})
}

// SetCustomer records the customer the quote is being prepared for.
func (s *SessionService) SetCustomer(ctx context.Context, sessionID, name, email string) (*models.Session, error) {
	return s.mutate(ctx, sessionID, func(session *models.Session) error {
		session.CustomerName = name
		session.CustomerEmail = email
		return nil
	})
}

// mutate loads the session, applies the change, recomputes the breakdown, and
// saves. The catalog snapshot is captured once per mutation so the whole
// recomputation sees one consistent catalog.
func (s *SessionService) mutate(ctx context.Context, sessionID string, fn func(*models.Session) error) (*models.Session, error) {
	snap, err := s.catalog.Snapshot()
	if err != nil {
		return nil, err
	}

	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := fn(session); err != nil {
		return nil, err
	}

	if len(session.Lines) == 0 {
		session.Breakdown = nil
	} else {
		breakdown, err := pricing.ComputeQuote(snap, session.Lines, session.RegionCode, session.Options)
		if err != nil {
			return nil, err
		}
		session.Breakdown = breakdown
	}
	session.UpdatedAt = time.Now()

	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}

	log.Debug().
		Str("session_id", session.ID).
		Int("lines", len(session.Lines)).
		Msg("Session recomputed")
	return session, nil
}
