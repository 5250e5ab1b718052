package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/verdantleaf/quote_api/internal/models"
	"github.com/verdantleaf/quote_api/internal/utils"
)

// ZoneRepository handles data access for shipping zones, their rate bands,
// and the region-to-zone mapping.
type ZoneRepository struct {
	db *sqlx.DB
}

// NewZoneRepository creates a new ZoneRepository.
func NewZoneRepository(db *sqlx.DB) *ZoneRepository {
	return &ZoneRepository{db: db}
}

// GetZones returns all shipping zones with their bands attached.
func (r *ZoneRepository) GetZones() ([]models.ShippingZone, error) {
	const q = `SELECT * FROM shipping_zones ORDER BY key`
	var zones []models.ShippingZone
	if err := r.db.Select(&zones, q); err != nil {
		return nil, err
	}

	const bq = `SELECT * FROM shipping_bands ORDER BY zone_id, max_boxes`
	var bands []models.ShippingBand
	if err := r.db.Select(&bands, bq); err != nil {
		return nil, err
	}

	byZone := make(map[int][]models.ShippingBand, len(zones))
	for _, b := range bands {
		byZone[b.ZoneID] = append(byZone[b.ZoneID], b)
	}
	for i := range zones {
		zones[i].Bands = byZone[zones[i].ID]
	}
	return zones, nil
}

// GetZoneByKey returns a single zone with its bands.
func (r *ZoneRepository) GetZoneByKey(key string) (*models.ShippingZone, error) {
	const q = `SELECT * FROM shipping_zones WHERE key = $1 LIMIT 1`
	var z models.ShippingZone
	if err := r.db.Get(&z, q, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrZoneNotFound
		}
		return nil, err
	}

	const bq = `SELECT * FROM shipping_bands WHERE zone_id = $1 ORDER BY max_boxes`
	if err := r.db.Select(&z.Bands, bq, z.ID); err != nil {
		return nil, err
	}
	return &z, nil
}

// GetRegions returns the full region-to-zone mapping.
func (r *ZoneRepository) GetRegions() ([]models.ZoneRegion, error) {
	const q = `
        SELECT zr.region_code, zr.zone_id, sz.key AS zone_key
        FROM zone_regions zr
        JOIN shipping_zones sz ON sz.id = zr.zone_id
        ORDER BY zr.region_code`
	var regions []models.ZoneRegion
	if err := r.db.Select(&regions, q); err != nil {
		return nil, err
	}
	return regions, nil
}

// UpsertZone inserts or updates a zone by key and replaces its bands.
// Only one zone may be flagged default; flagging a new default clears the old.
func (r *ZoneRepository) UpsertZone(z *models.ShippingZone) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if z.IsDefault {
		if _, err := tx.Exec(`UPDATE shipping_zones SET is_default = false WHERE key != $1`, z.Key); err != nil {
			return err
		}
	}

	const q = `
        INSERT INTO shipping_zones (key, name, mode, rate_percent, per_master_case_rate, is_default)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (key) DO UPDATE SET
            name = EXCLUDED.name,
            mode = EXCLUDED.mode,
            rate_percent = EXCLUDED.rate_percent,
            per_master_case_rate = EXCLUDED.per_master_case_rate,
            is_default = EXCLUDED.is_default,
            updated_at = NOW()
        RETURNING id, created_at, updated_at`

	if err := tx.QueryRowx(q, z.Key, z.Name, z.Mode, z.RatePercent, z.PerMasterCaseRate, z.IsDefault).
		Scan(&z.ID, &z.CreatedAt, &z.UpdatedAt); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM shipping_bands WHERE zone_id = $1`, z.ID); err != nil {
		return err
	}
	for i := range z.Bands {
		b := &z.Bands[i]
		b.ZoneID = z.ID
		if err := tx.QueryRowx(
			`INSERT INTO shipping_bands (zone_id, max_boxes, rate) VALUES ($1, $2, $3) RETURNING id`,
			b.ZoneID, b.MaxBoxes, b.Rate,
		).Scan(&b.ID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeleteZone removes a zone, its bands, and its region mappings.
func (r *ZoneRepository) DeleteZone(key string) error {
	res, err := r.db.Exec(`DELETE FROM shipping_zones WHERE key = $1`, key)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return utils.ErrZoneNotFound
	}
	return nil
}

// SetRegion maps a region code to a zone, replacing any previous mapping.
func (r *ZoneRepository) SetRegion(regionCode, zoneKey string) error {
	const q = `
        INSERT INTO zone_regions (region_code, zone_id)
        SELECT $1, id FROM shipping_zones WHERE key = $2
        ON CONFLICT (region_code) DO UPDATE SET zone_id = EXCLUDED.zone_id`
	res, err := r.db.Exec(q, regionCode, zoneKey)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return utils.ErrZoneNotFound
	}
	return nil
}

// DeleteRegion removes a region mapping.
func (r *ZoneRepository) DeleteRegion(regionCode string) error {
	_, err := r.db.Exec(`DELETE FROM zone_regions WHERE region_code = $1`, regionCode)
	return err
}
