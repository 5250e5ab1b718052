package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/verdantleaf/quote_api/internal/models"
	"github.com/verdantleaf/quote_api/internal/repository"
	"github.com/verdantleaf/quote_api/pkg/githubstore"
)

// SnapshotPublisher pushes catalog documents to external storage. Satisfied
// by *githubstore.Client.
type SnapshotPublisher interface {
	PutFile(ctx context.Context, path, message string, content []byte) (string, error)
}

var _ SnapshotPublisher = (*githubstore.Client)(nil)

// CatalogManagementService applies admin edits to the pricing catalog. Every
// successful write reloads the in-memory snapshot, so new quotes price against
// the edit immediately, and publishes the refreshed catalog document as a
// best-effort side channel.
type CatalogManagementService struct {
	catalogRepo *repository.CatalogRepository
	zoneRepo    *repository.ZoneRepository
	catalogSvc  *CatalogService
	publisher   SnapshotPublisher
	publishPath string
}

// NewCatalogManagementService constructs a CatalogManagementService.
// publisher may be nil when no external catalog store is configured.
func NewCatalogManagementService(
	catalogRepo *repository.CatalogRepository,
	zoneRepo *repository.ZoneRepository,
	catalogSvc *CatalogService,
	publisher SnapshotPublisher,
	publishPath string,
) *CatalogManagementService {
	return &CatalogManagementService{
		catalogRepo: catalogRepo,
		zoneRepo:    zoneRepo,
		catalogSvc:  catalogSvc,
		publisher:   publisher,
		publishPath: publishPath,
	}
}

// ListProducts returns all products including inactive ones.
func (s *CatalogManagementService) ListProducts() ([]models.Product, error) {
	return s.catalogRepo.GetAllProducts()
}

// CreateProduct inserts a product and reloads the snapshot.
func (s *CatalogManagementService) CreateProduct(ctx context.Context, p *models.Product) error {
	if err := s.catalogRepo.CreateProduct(p); err != nil {
		return err
	}
	return s.refresh(ctx, fmt.Sprintf("Add product %s", p.Key))
}

// UpdateProduct updates a product and reloads the snapshot.
func (s *CatalogManagementService) UpdateProduct(ctx context.Context, p *models.Product) error {
	if err := s.catalogRepo.UpdateProduct(p); err != nil {
		return err
	}
	return s.refresh(ctx, fmt.Sprintf("Update product %s", p.Key))
}

// DeleteProduct removes a product and reloads the snapshot.
func (s *CatalogManagementService) DeleteProduct(ctx context.Context, key string) error {
	if err := s.catalogRepo.DeleteProduct(key); err != nil {
		return err
	}
	return s.refresh(ctx, fmt.Sprintf("Remove product %s", key))
}

// ListTiers returns the tier ladder.
func (s *CatalogManagementService) ListTiers() ([]models.Tier, error) {
	return s.catalogRepo.GetTiers()
}

// UpsertTier inserts or updates a discount tier and reloads the snapshot.
func (s *CatalogManagementService) UpsertTier(ctx context.Context, t *models.Tier) error {
	if err := s.catalogRepo.UpsertTier(t); err != nil {
		return err
	}
	return s.refresh(ctx, fmt.Sprintf("Set discount tier at %d cases", t.Threshold))
}

// DeleteTier removes a discount tier and reloads the snapshot.
func (s *CatalogManagementService) DeleteTier(ctx context.Context, threshold int) error {
	if err := s.catalogRepo.DeleteTier(threshold); err != nil {
		return err
	}
	return s.refresh(ctx, fmt.Sprintf("Remove discount tier at %d cases", threshold))
}

// ListZones returns all shipping zones with bands.
func (s *CatalogManagementService) ListZones() ([]models.ShippingZone, error) {
	return s.zoneRepo.GetZones()
}

// UpsertZone inserts or updates a shipping zone and reloads the snapshot.
func (s *CatalogManagementService) UpsertZone(ctx context.Context, z *models.ShippingZone) error {
	if err := s.zoneRepo.UpsertZone(z); err != nil {
		return err
	}
	return s.refresh(ctx, fmt.Sprintf("Set shipping zone %s", z.Key))
}

// DeleteZone removes a shipping zone and reloads the snapshot.
func (s *CatalogManagementService) DeleteZone(ctx context.Context, key string) error {
	if err := s.zoneRepo.DeleteZone(key); err != nil {
		return err
	}
	return s.refresh(ctx, fmt.Sprintf("Remove shipping zone %s", key))
}

// SetRegion maps a region code to a zone and reloads the snapshot.
func (s *CatalogManagementService) SetRegion(ctx context.Context, regionCode, zoneKey string) error {
	if err := s.zoneRepo.SetRegion(regionCode, zoneKey); err != nil {
		return err
	}
	return s.refresh(ctx, fmt.Sprintf("Map region %s to zone %s", regionCode, zoneKey))
}

// DeleteRegion removes a region mapping and reloads the snapshot.
func (s *CatalogManagementService) DeleteRegion(ctx context.Context, regionCode string) error {
	if err := s.zoneRepo.DeleteRegion(regionCode); err != nil {
		return err
	}
	return s.refresh(ctx, fmt.Sprintf("Unmap region %s", regionCode))
}

// refresh reloads the snapshot and publishes the new catalog document. A
// failed reload is returned to the caller because the edit is live in the
// database but not in pricing; a failed publish is only logged.
func (s *CatalogManagementService) refresh(ctx context.Context, message string) error {
	if err := s.catalogSvc.Reload(ctx); err != nil {
		return fmt.Errorf("catalog edit saved but snapshot reload failed: %w", err)
	}
	s.publish(ctx, message)
	return nil
}

// publish writes the current catalog document to the external store.
func (s *CatalogManagementService) publish(ctx context.Context, message string) {
	if s.publisher == nil {
		return
	}
	snap, err := s.catalogSvc.Snapshot()
	if err != nil {
		return
	}
	doc, err := json.MarshalIndent(snap.Document(), "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to serialize catalog document")
		return
	}
	commit, err := s.publisher.PutFile(ctx, s.publishPath, message, doc)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to publish catalog document")
		return
	}
	log.Info().Str("commit", commit).Msg("Catalog document published")
}
