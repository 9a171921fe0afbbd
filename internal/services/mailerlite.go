package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"infocripto/internal/apperr"
	"infocripto/internal/logger"
	"infocripto/internal/models"
	"infocripto/internal/utils/helpers"

	"go.uber.org/zap"
)

const mailerLiteBaseURL = "https://connect.mailerlite.com/api"

type MailerLiteService struct {
	HTTPClient *http.Client
	baseURL    string
	apiKey     string
	groupID    string
}

func NewMailerLiteService(apiKey, groupID string) *MailerLiteService {
	return &MailerLiteService{
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
		baseURL:    mailerLiteBaseURL,
		apiKey:     apiKey,
		groupID:    groupID,
	}
}

type mailerLiteSubscriber struct {
	Email  string            `json:"email"`
	Fields map[string]string `json:"fields,omitempty"`
	Groups []string          `json:"groups,omitempty"`
}

// Subscribe adds email to the MailerLite audience. An existing subscriber is not an error.
func (s *MailerLiteService) Subscribe(ctx context.Context, email string, name *string) (models.SubscribeResult, error) {
	if s.apiKey == "" {
		return models.SubscribeResult{}, apperr.WithReason(apperr.ErrValidation,
			"MAILERLITE_API_KEY is not configured")
	}

	payload := mailerLiteSubscriber{Email: email}
	if name != nil && *name != "" {
		payload.Fields = map[string]string{"name": *name}
	}
	if s.groupID != "" {
		payload.Groups = []string{s.groupID}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return models.SubscribeResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/subscribers", bytes.NewReader(data))
	if err != nil {
		return models.SubscribeResult{}, fmt.Errorf("build mailerlite request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		logger.WithCtx(ctx).Warn("mailerlite request failed", zap.Error(err))
		return models.SubscribeResult{}, fmt.Errorf("%w: %v",
			apperr.Upstream("network failure contacting MailerLite"), err)
	}
	defer resp.Body.Close()
	body, err := readUpstreamBody(resp.Body)
	if err != nil {
		return models.SubscribeResult{}, fmt.Errorf("%w: %v",
			apperr.Upstream("MailerLite returned an unreadable response"), err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		var created struct {
			Data struct {
				ID string `json:"id"`
			} `json:"data"`
			ID string `json:"id"`
		}
		_ = json.Unmarshal(body, &created)
		id := created.Data.ID
		if id == "" {
			id = created.ID
		}
		return models.SubscribeResult{OK: true, Status: resp.StatusCode, ID: id}, nil

	case http.StatusConflict, http.StatusUnprocessableEntity:
		logger.WithCtx(ctx).Info("mailerlite: already subscribed", zap.String("email_masked", helpers.MaskEmail(email)))
		return models.SubscribeResult{
			OK:     true,
			Status: resp.StatusCode,
			Reason: "already_subscribed",
			Detail: string(body),
		}, nil

	case http.StatusUnauthorized:
		return models.SubscribeResult{}, apperr.WithReason(apperr.ErrValidation,
			"MailerLite rejected the API key (401). Check MAILERLITE_API_KEY.")

	case http.StatusTooManyRequests:
		return models.SubscribeResult{}, apperr.WithReason(apperr.ErrValidation,
			"MailerLite rate limit (429). Try again shortly.")
	}

	logger.WithCtx(ctx).Warn("mailerlite responded with error",
		zap.Int("status", resp.StatusCode), zap.ByteString("body", body))
	return models.SubscribeResult{}, apperr.Upstream(fmt.Sprintf("MailerLite API error %d", resp.StatusCode))
}
