package repository

import (
	"context"

	"infocripto/internal/models"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

type NewsletterRepository struct {
	db DBTX
}

func NewNewsletterRepository(db DBTX) *NewsletterRepository {
	return &NewsletterRepository{db: db}
}

// Record stores a subscription once per email, linking it to a registered user
// with the same address. It reports whether a new row was written.
func (r *NewsletterRepository) Record(ctx context.Context, sub *models.NewsletterSubscription) (bool, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	sub.Email = NormalizeEmail(sub.Email)

	tag, err := r.db.Exec(ctx, `
	INSERT INTO newsletter_subscriptions (id, user_id, email, consent)
	VALUES ($1, (SELECT id FROM users WHERE lower(email) = $2), $2, $3)
	ON CONFLICT (email) DO NOTHING`, sub.ID, sub.Email, sub.Consent)
	if err != nil {
		return false, oops.Code("NEWSLETTER_RECORD_FAILED").Wrap(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *NewsletterRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM newsletter_subscriptions`).Scan(&n); err != nil {
		return 0, oops.Code("NEWSLETTER_COUNT_FAILED").Wrap(err)
	}
	return n, nil
}
