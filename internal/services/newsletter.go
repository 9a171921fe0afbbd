package services

import (
	"context"

	"infocripto/internal/logger"
	"infocripto/internal/models"

	"go.uber.org/zap"
)

type NewsletterProvider interface {
	Subscribe(ctx context.Context, email string, name *string) (models.SubscribeResult, error)
}

type NewsletterRepo interface {
	Record(ctx context.Context, sub *models.NewsletterSubscription) (bool, error)
	Count(ctx context.Context) (int64, error)
}

type NewsletterService struct {
	provider NewsletterProvider
	repo     NewsletterRepo
}

func NewNewsletterService(provider NewsletterProvider, repo NewsletterRepo) *NewsletterService {
	return &NewsletterService{provider: provider, repo: repo}
}

// Subscribe registers email with the provider and records it locally on success.
// A failed local write is logged; the provider outcome is what the caller sees.
func (s *NewsletterService) Subscribe(ctx context.Context, email string, name *string) (models.SubscribeResult, error) {
	res, err := s.provider.Subscribe(ctx, email, name)
	if err != nil {
		return res, err
	}

	sub := &models.NewsletterSubscription{Email: email, Consent: true}
	created, err := s.repo.Record(ctx, sub)
	if err != nil {
		logger.WithCtx(ctx).Error("newsletter subscription not recorded", zap.Error(err))
		return res, nil
	}
	if created {
		logger.WithCtx(ctx).Info("newsletter subscription recorded", zap.String("subscription_id", sub.ID))
	}
	return res, nil
}
