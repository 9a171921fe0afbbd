package repository

import (
	"context"
	"errors"

	"infocripto/internal/apperr"
	"infocripto/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"
)

type FavoriteRepository struct {
	db DBTX
}

func NewFavoriteRepository(db DBTX) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// ListByUser returns the user's favorites, newest first.
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID string) ([]models.Favorite, error) {
	rows, err := r.db.Query(ctx, `
	SELECT id, user_id, coin_id, added_at FROM favorites
	WHERE user_id = $1
	ORDER BY added_at DESC, id DESC`, userID)
	if err != nil {
		return nil, oops.Code("FAVORITE_LIST_FAILED").With("user_id", userID).Wrap(err)
	}
	defer rows.Close()

	favorites := []models.Favorite{}
	for rows.Next() {
		var f models.Favorite
		if err := rows.Scan(&f.ID, &f.UserID, &f.CoinID, &f.AddedAt); err != nil {
			return nil, oops.Code("FAVORITE_LIST_FAILED").With("user_id", userID).Wrap(err)
		}
		favorites = append(favorites, f)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("FAVORITE_LIST_FAILED").With("user_id", userID).Wrap(err)
	}
	return favorites, nil
}

// Add returns apperr.ErrConflict when the coin is already a favorite.
func (r *FavoriteRepository) Add(ctx context.Context, userID, coinID string) (*models.Favorite, error) {
	f := models.Favorite{ID: uuid.NewString(), UserID: userID, CoinID: coinID}
	err := r.db.QueryRow(ctx, `
	INSERT INTO favorites (id, user_id, coin_id)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id, coin_id) DO NOTHING
	RETURNING added_at`, f.ID, userID, coinID).Scan(&f.AddedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrConflict
	}
	if err != nil {
		return nil, oops.Code("FAVORITE_ADD_FAILED").With("user_id", userID).With("coin_id", coinID).Wrap(err)
	}
	return &f, nil
}

// Remove returns apperr.ErrNotFound when nothing was deleted.
func (r *FavoriteRepository) Remove(ctx context.Context, userID, coinID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM favorites WHERE user_id = $1 AND coin_id = $2`, userID, coinID)
	if err != nil {
		return oops.Code("FAVORITE_REMOVE_FAILED").With("user_id", userID).With("coin_id", coinID).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
