package services

import (
	"context"
	"strings"

	"infocripto/internal/apperr"
	"infocripto/internal/logger"
	"infocripto/internal/models"

	"go.uber.org/zap"
)

type FavoriteRepo interface {
	ListByUser(ctx context.Context, userID string) ([]models.Favorite, error)
	Add(ctx context.Context, userID, coinID string) (*models.Favorite, error)
	Remove(ctx context.Context, userID, coinID string) error
}

type FavoriteService struct {
	repo FavoriteRepo
}

func NewFavoriteService(repo FavoriteRepo) *FavoriteService {
	return &FavoriteService{repo: repo}
}

func (s *FavoriteService) List(ctx context.Context, userID string) ([]models.Favorite, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Add returns apperr.ErrConflict when coinID is already a favorite of the user.
func (s *FavoriteService) Add(ctx context.Context, userID, coinID string) (*models.Favorite, error) {
	coinID = strings.TrimSpace(coinID)
	if coinID == "" {
		return nil, apperr.Validation("coin_id is required")
	}
	fav, err := s.repo.Add(ctx, userID, coinID)
	if err != nil {
		return nil, err
	}
	logger.WithCtx(ctx).Info("favorite added", zap.String("coin_id", coinID))
	return fav, nil
}

// Remove returns apperr.ErrNotFound when coinID is not a favorite of the user.
func (s *FavoriteService) Remove(ctx context.Context, userID, coinID string) error {
	if err := s.repo.Remove(ctx, userID, coinID); err != nil {
		return err
	}
	logger.WithCtx(ctx).Info("favorite removed", zap.String("coin_id", coinID))
	return nil
}
