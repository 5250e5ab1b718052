package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantleaf/quote_api/internal/catalog"
	"github.com/verdantleaf/quote_api/internal/models"
	"github.com/verdantleaf/quote_api/internal/utils"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// memoryStore is an in-memory SessionStore for tests.
type memoryStore struct {
	mu       sync.Mutex
	sessions map[string]models.Session
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: make(map[string]models.Session)}
}

func (m *memoryStore) Save(_ context.Context, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = *session
	return nil
}

func (m *memoryStore) Get(_ context.Context, sessionID string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, utils.ErrSessionNotFound
	}
	copied := s
	return &copied, nil
}

func (m *memoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

// stubProvider serves a fixed snapshot, or CATALOG_NOT_READY when nil.
type stubProvider struct {
	snap *catalog.Snapshot
}

func (p *stubProvider) Snapshot() (*catalog.Snapshot, error) {
	if p.snap == nil {
		return nil, utils.ErrCatalogNotReady
	}
	return p.snap, nil
}

func serviceSnapshot(t *testing.T) *catalog.Snapshot {
	t.Helper()
	snap, err := catalog.NewSnapshot(
		[]models.Product{
			{Key: "cham-tea", Name: "Chamomile Tea Display", UnitPrice: dec("4.50"),
				UnitsPerCase: 144, UnitsPerDisplayBox: 12, IsActive: true},
			{Key: "lav-bulk", Name: "Lavender Bulk", UnitPrice: dec("2.70"),
				UnitsPerCase: 240, IsActive: true},
		},
		[]models.Tier{{Threshold: 25, DiscountRate: dec("0.017"), Label: "25+"}},
		[]models.ShippingZone{
			{Key: "west", Mode: models.ZoneModePercentage, RatePercent: dec("5"), IsDefault: true},
		},
		[]models.ZoneRegion{{RegionCode: "CA", ZoneKey: "west"}},
	)
	require.NoError(t, err)
	return snap
}

func newTestSessionService(t *testing.T) (*SessionService, *memoryStore) {
	store := newMemoryStore()
	svc := NewSessionService(store, &stubProvider{snap: serviceSnapshot(t)})
	return svc, store
}

func TestSessionCreateAndGet(t *testing.T) {
	svc, _ := newTestSessionService(t)
	ctx := context.Background()

	session, err := svc.Create(ctx, 7, "CA")
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, 7, session.ClientID)
	assert.Equal(t, "CA", session.RegionCode)
	assert.Empty(t, session.Lines)
	assert.Nil(t, session.Breakdown)
	assert.True(t, session.Options.ApplyCardFee)

	got, err := svc.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
}

func TestSessionCreateRequiresCatalog(t *testing.T) {
	svc := NewSessionService(newMemoryStore(), &stubProvider{})
	_, err := svc.Create(context.Background(), 1, "CA")
	assert.ErrorIs(t, err, utils.ErrCatalogNotReady)
}

func TestSessionAddLineRecomputes(t *testing.T) {
	svc, _ := newTestSessionService(t)
	ctx := context.Background()

	session, err := svc.Create(ctx, 1, "CA")
	require.NoError(t, err)

	session, err = svc.AddLine(ctx, session.ID, models.LineItemRequest{
		ProductKey: "lav-bulk", MasterCaseQuantity: 10,
	})
	require.NoError(t, err)
	require.NotNil(t, session.Breakdown)

	// 10 * 240 * 2.70 = 6480, no tier, 5% shipping, fee on the remainder.
	assert.Equal(t, "6480.00", session.Breakdown.SubtotalBeforeDiscount.StringFixed(2))
	assert.Equal(t, "324.00", session.Breakdown.ShippingCost.StringFixed(2))
}

func TestSessionAddLineMergesSameProduct(t *testing.T) {
	svc, _ := newTestSessionService(t)
	ctx := context.Background()

	session, err := svc.Create(ctx, 1, "CA")
	require.NoError(t, err)

	_, err = svc.AddLine(ctx, session.ID, models.LineItemRequest{ProductKey: "cham-tea", MasterCaseQuantity: 2})
	require.NoError(t, err)
	session, err = svc.AddLine(ctx, session.ID, models.LineItemRequest{ProductKey: "cham-tea", MasterCaseQuantity: 3, DisplayBoxQuantity: 1})
	require.NoError(t, err)

	require.Len(t, session.Lines, 1)
	assert.Equal(t, 5, session.Lines[0].MasterCaseQuantity)
	assert.Equal(t, 1, session.Lines[0].DisplayBoxQuantity)
}

func TestSessionUpdateLineNotFound(t *testing.T) {
	svc, _ := newTestSessionService(t)
	ctx := context.Background()

	session, err := svc.Create(ctx, 1, "CA")
	require.NoError(t, err)

	_, err = svc.UpdateLine(ctx, session.ID, models.LineItemRequest{ProductKey: "cham-tea", MasterCaseQuantity: 1})
	assert.ErrorIs(t, err, utils.ErrLineNotFound)
}

func TestSessionRemoveLastLineClearsBreakdown(t *testing.T) {
	svc, _ := newTestSessionService(t)
	ctx := context.Background()

	session, err := svc.Create(ctx, 1, "CA")
	require.NoError(t, err)

	session, err = svc.AddLine(ctx, session.ID, models.LineItemRequest{ProductKey: "cham-tea", MasterCaseQuantity: 1})
	require.NoError(t, err)
	require.NotNil(t, session.Breakdown)

	session, err = svc.RemoveLine(ctx, session.ID, "cham-tea")
	require.NoError(t, err)
	assert.Empty(t, session.Lines)
	assert.Nil(t, session.Breakdown)
}

func TestSessionSetRegionRecomputesShipping(t *testing.T) {
	svc, _ := newTestSessionService(t)
	ctx := context.Background()

	session, err := svc.Create(ctx, 1, "CA")
	require.NoError(t, err)
	session, err = svc.AddLine(ctx, session.ID, models.LineItemRequest{ProductKey: "lav-bulk", MasterCaseQuantity: 4})
	require.NoError(t, err)
	assert.False(t, session.Breakdown.ZoneFallback)

	session, err = svc.SetRegion(ctx, session.ID, "TX")
	require.NoError(t, err)
	assert.Equal(t, "TX", session.RegionCode)
	assert.True(t, session.Breakdown.ZoneFallback, "unmapped region resolves via default zone")
}

func TestSessionSetOptions(t *testing.T) {
	svc, _ := newTestSessionService(t)
	ctx := context.Background()

	session, err := svc.Create(ctx, 1, "CA")
	require.NoError(t, err)
	_, err = svc.AddLine(ctx, session.ID, models.LineItemRequest{ProductKey: "cham-tea", MasterCaseQuantity: 1})
	require.NoError(t, err)

	opts := models.DefaultQuoteOptions()
	opts.ApplyCardFee = false
	session, err = svc.SetOptions(ctx, session.ID, opts)
	require.NoError(t, err)
	assert.True(t, session.Breakdown.CreditCardFee.IsZero())

	override := dec("42")
	opts.ShippingOverride = &override
	session, err = svc.SetOptions(ctx, session.ID, opts)
	require.NoError(t, err)
	assert.Equal(t, "42.00", session.Breakdown.ShippingCost.StringFixed(2))
}

func TestSessionMutationRejectsBadLine(t *testing.T) {
	svc, store := newTestSessionService(t)
	ctx := context.Background()

	session, err := svc.Create(ctx, 1, "CA")
	require.NoError(t, err)
	_, err = svc.AddLine(ctx, session.ID, models.LineItemRequest{ProductKey: "cham-tea", MasterCaseQuantity: 1})
	require.NoError(t, err)

	// A failed recompute must not persist the mutation.
	_, err = svc.AddLine(ctx, session.ID, models.LineItemRequest{ProductKey: "nope", MasterCaseQuantity: 1})
	assert.Error(t, err)

	saved, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, saved.Lines, 1)
}

func TestSessionGetMissing(t *testing.T) {
	svc, _ := newTestSessionService(t)
	_, err := svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, utils.ErrSessionNotFound)
}
