package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/verdantleaf/quote_api/internal/models"
	"github.com/verdantleaf/quote_api/internal/utils"
)

// QuoteRepository handles data access for finalized quotes.
type QuoteRepository struct {
	db *sqlx.DB
}

// NewQuoteRepository creates a new QuoteRepository.
func NewQuoteRepository(db *sqlx.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

// Create persists a quote and its lines in one transaction.
func (r *QuoteRepository) Create(q *models.Quote) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const insertQuote = `
        INSERT INTO quotes (quote_id, client_id, customer_name, customer_email,
            region_code, zone_key, subtotal_before_discount, discount_rate,
            subtotal_after_discount, shipping_cost, credit_card_fee, grand_total, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        RETURNING id, created_at`

	if err := tx.QueryRowx(insertQuote,
		q.QuoteID,
		q.ClientID,
		q.CustomerName,
		q.CustomerEmail,
		q.RegionCode,
		q.ZoneKey,
		q.SubtotalBeforeDiscount,
		q.DiscountRate,
		q.SubtotalAfterDiscount,
		q.ShippingCost,
		q.CreditCardFee,
		q.GrandTotal,
		q.Status,
	).Scan(&q.ID, &q.CreatedAt); err != nil {
		return err
	}

	const insertLine = `
        INSERT INTO quote_lines (quote_id, product_key, product_name,
            master_case_quantity, display_box_quantity, total_units,
            resolved_unit_price, line_total)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id`

	for i := range q.Lines {
		line := &q.Lines[i]
		line.QuoteID = q.ID
		if err := tx.QueryRowx(insertLine,
			line.QuoteID,
			line.ProductKey,
			line.ProductName,
			line.MasterCaseQuantity,
			line.DisplayBoxQuantity,
			line.TotalUnits,
			line.ResolvedUnitPrice,
			line.LineTotal,
		).Scan(&line.ID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByQuoteID returns a quote with its lines by public quote ID.
func (r *QuoteRepository) GetByQuoteID(quoteID string) (*models.Quote, error) {
	const q = `SELECT * FROM quotes WHERE quote_id = $1 LIMIT 1`
	var quote models.Quote
	if err := r.db.Get(&quote, q, quoteID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrQuoteNotFound
		}
		return nil, err
	}

	const lq = `SELECT * FROM quote_lines WHERE quote_id = $1 ORDER BY id`
	if err := r.db.Select(&quote.Lines, lq, quote.ID); err != nil {
		return nil, err
	}
	return &quote, nil
}

// GetByID returns a quote without its lines by internal ID.
func (r *QuoteRepository) GetByID(id int) (*models.Quote, error) {
	const q = `SELECT * FROM quotes WHERE id = $1 LIMIT 1`
	var quote models.Quote
	if err := r.db.Get(&quote, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrQuoteNotFound
		}
		return nil, err
	}
	return &quote, nil
}

// ListByClient returns a client's quotes, newest first, with pagination.
func (r *QuoteRepository) ListByClient(clientID, page, limit int) ([]models.Quote, int, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	offset := (page - 1) * limit

	var total int
	if err := r.db.Get(&total, `SELECT COUNT(1) FROM quotes WHERE client_id = $1`, clientID); err != nil {
		return nil, 0, err
	}

	const q = `SELECT * FROM quotes WHERE client_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	var quotes []models.Quote
	if err := r.db.Select(&quotes, q, clientID, limit, offset); err != nil {
		return nil, 0, err
	}
	return quotes, total, nil
}

// UpdateStatus sets a quote's lifecycle status.
func (r *QuoteRepository) UpdateStatus(id int, status models.QuoteStatus) error {
	_, err := r.db.Exec(`UPDATE quotes SET status = $2 WHERE id = $1`, id, status)
	return err
}
