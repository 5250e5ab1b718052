package service

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/verdantleaf/quote_api/internal/catalog"
	"github.com/verdantleaf/quote_api/internal/repository"
	"github.com/verdantleaf/quote_api/internal/utils"
)

// CatalogService owns the current catalog snapshot. The snapshot is loaded
// from the database and swapped in atomically, so readers always see a fully
// validated, immutable catalog — never a half-loaded one. Before the first
// successful load every read fails with CATALOG_NOT_READY.
type CatalogService struct {
	catalogRepo *repository.CatalogRepository
	zoneRepo    *repository.ZoneRepository
	current     atomic.Pointer[catalog.Snapshot]
}

// NewCatalogService constructs a CatalogService. Call Reload before serving.
func NewCatalogService(catalogRepo *repository.CatalogRepository, zoneRepo *repository.ZoneRepository) *CatalogService {
	return &CatalogService{
		catalogRepo: catalogRepo,
		zoneRepo:    zoneRepo,
	}
}

// Reload builds a fresh snapshot from the database and swaps it in. On
// failure the previous snapshot (if any) stays active, so a bad admin edit
// cannot take pricing down.
func (s *CatalogService) Reload(ctx context.Context) error {
	products, err := s.catalogRepo.GetActiveProducts()
	if err != nil {
		return err
	}
	tiers, err := s.catalogRepo.GetTiers()
	if err != nil {
		return err
	}
	zones, err := s.zoneRepo.GetZones()
	if err != nil {
		return err
	}
	regions, err := s.zoneRepo.GetRegions()
	if err != nil {
		return err
	}

	snap, err := catalog.NewSnapshot(products, tiers, zones, regions)
	if err != nil {
		return err
	}

	s.current.Store(snap)
	log.Info().
		Int("products", len(products)).
		Int("tiers", len(tiers)).
		Int("zones", len(zones)).
		Int("regions", len(regions)).
		Msg("Catalog snapshot loaded")
	return nil
}

// Snapshot returns the current catalog snapshot, or CATALOG_NOT_READY when
// the initial load has not completed.
func (s *CatalogService) Snapshot() (*catalog.Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, utils.ErrCatalogNotReady
	}
	return snap, nil
}
