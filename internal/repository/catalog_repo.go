package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/verdantleaf/quote_api/internal/models"
	"github.com/verdantleaf/quote_api/internal/utils"
)

// CatalogRepository handles data access for products and discount tiers.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// GetActiveProducts returns all active products ordered by key.
func (r *CatalogRepository) GetActiveProducts() ([]models.Product, error) {
	const q = `SELECT * FROM products WHERE is_active = true ORDER BY key`
	var products []models.Product
	if err := r.db.Select(&products, q); err != nil {
		return nil, err
	}
	return products, nil
}

// GetAllProducts returns all products including inactive ones, for admin views.
func (r *CatalogRepository) GetAllProducts() ([]models.Product, error) {
	const q = `SELECT * FROM products ORDER BY key`
	var products []models.Product
	if err := r.db.Select(&products, q); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProductByKey returns a single product by its stable key.
func (r *CatalogRepository) GetProductByKey(key string) (*models.Product, error) {
	const q = `SELECT * FROM products WHERE key = $1 LIMIT 1`
	var p models.Product
	if err := r.db.Get(&p, q, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

// CreateProduct inserts a product and populates its generated fields.
func (r *CatalogRepository) CreateProduct(p *models.Product) error {
	const q = `
        INSERT INTO products (key, name, category, unit_price, units_per_case,
            units_per_display_box, upsell_box_threshold, is_active)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at, updated_at`

	return r.db.QueryRowx(q,
		p.Key,
		p.Name,
		p.Category,
		p.UnitPrice,
		p.UnitsPerCase,
		p.UnitsPerDisplayBox,
		p.UpsellBoxThreshold,
		p.IsActive,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// UpdateProduct updates an existing product by key.
func (r *CatalogRepository) UpdateProduct(p *models.Product) error {
	const q = `
        UPDATE products
        SET name = $2, category = $3, unit_price = $4, units_per_case = $5,
            units_per_display_box = $6, upsell_box_threshold = $7, is_active = $8,
            updated_at = NOW()
        WHERE key = $1
        RETURNING id, updated_at`

	err := r.db.QueryRowx(q,
		p.Key,
		p.Name,
		p.Category,
		p.UnitPrice,
		p.UnitsPerCase,
		p.UnitsPerDisplayBox,
		p.UpsellBoxThreshold,
		p.IsActive,
	).Scan(&p.ID, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return utils.ErrProductNotFound
	}
	return err
}

// DeleteProduct removes a product by key.
func (r *CatalogRepository) DeleteProduct(key string) error {
	res, err := r.db.Exec(`DELETE FROM products WHERE key = $1`, key)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return utils.ErrProductNotFound
	}
	return nil
}

// GetTiers returns all discount tiers ascending by threshold.
func (r *CatalogRepository) GetTiers() ([]models.Tier, error) {
	const q = `SELECT * FROM tiers ORDER BY threshold`
	var tiers []models.Tier
	if err := r.db.Select(&tiers, q); err != nil {
		return nil, err
	}
	return tiers, nil
}

// UpsertTier inserts or updates a tier by threshold.
func (r *CatalogRepository) UpsertTier(t *models.Tier) error {
	const q = `
        INSERT INTO tiers (threshold, discount_rate, label)
        VALUES ($1, $2, $3)
        ON CONFLICT (threshold) DO UPDATE SET
            discount_rate = EXCLUDED.discount_rate,
            label = EXCLUDED.label,
            updated_at = NOW()
        RETURNING id, created_at, updated_at`

	return r.db.QueryRowx(q, t.Threshold, t.DiscountRate, t.Label).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// DeleteTier removes a tier by threshold. The threshold-0 floor tier is kept
// in the database like any other row; the snapshot re-injects it if missing.
func (r *CatalogRepository) DeleteTier(threshold int) error {
	_, err := r.db.Exec(`DELETE FROM tiers WHERE threshold = $1`, threshold)
	return err
}
