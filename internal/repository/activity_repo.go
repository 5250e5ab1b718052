package repository

import (
	"github.com/jmoiron/sqlx"

	"github.com/verdantleaf/quote_api/internal/models"
)

// ActivityRepository handles the queue of CRM activity posts. Activities that
// fail delivery stay pending and are retried by the activity retry worker.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Enqueue adds a pending activity for a quote.
func (r *ActivityRepository) Enqueue(a *models.CRMActivity) error {
	const q = `
        INSERT INTO crm_activities (quote_id, summary, status, attempts)
        VALUES ($1, $2, $3, 0)
        RETURNING id, created_at`
	return r.db.QueryRowx(q, a.QuoteID, a.Summary, models.CRMActivityPending).
		Scan(&a.ID, &a.CreatedAt)
}

// GetPending returns pending activities with fewer than maxAttempts attempts,
// oldest first.
func (r *ActivityRepository) GetPending(maxAttempts, limit int) ([]models.CRMActivity, error) {
	const q = `
        SELECT * FROM crm_activities
        WHERE status = $1 AND attempts < $2
        ORDER BY created_at
        LIMIT $3`
	var activities []models.CRMActivity
	if err := r.db.Select(&activities, q, models.CRMActivityPending, maxAttempts, limit); err != nil {
		return nil, err
	}
	return activities, nil
}

// MarkDelivered records a successful delivery.
func (r *ActivityRepository) MarkDelivered(id int) error {
	const q = `
        UPDATE crm_activities
        SET status = $2, delivered_at = NOW(), last_error = ''
        WHERE id = $1`
	_, err := r.db.Exec(q, id, models.CRMActivityDelivered)
	return err
}

// MarkAttemptFailed increments the attempt counter and stores the error.
// Activities that exhaust maxAttempts are flagged failed so the worker stops
// picking them up.
func (r *ActivityRepository) MarkAttemptFailed(id int, lastError string, maxAttempts int) error {
	const q = `
        UPDATE crm_activities
        SET attempts = attempts + 1,
            last_error = $2,
            status = CASE WHEN attempts + 1 >= $3 THEN 'failed' ELSE status END
        WHERE id = $1`
	_, err := r.db.Exec(q, id, lastError, maxAttempts)
	return err
}
