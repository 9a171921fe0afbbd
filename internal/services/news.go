package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"infocripto/internal/apperr"
	"infocripto/internal/logger"
	"infocripto/internal/models"

	"go.uber.org/zap"
)

const (
	newsAPIEndpoint = "https://newsapi.org/v2/everything"
	newsQuery       = "(criptomoeda OR cripto OR bitcoin OR ethereum OR cryptocurrency)"
	newsPageSize    = 20
)

// NewsService reads crypto headlines from NewsAPI.
type NewsService struct {
	HTTPClient *http.Client
	endpoint   string
	apiKey     string
	language   string
}

func NewNewsService(apiKey, language string) *NewsService {
	if language == "" {
		language = "pt"
	}
	return &NewsService{
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
		endpoint:   newsAPIEndpoint,
		apiKey:     apiKey,
		language:   language,
	}
}

// FetchNews returns an empty list when no API key is configured.
func (s *NewsService) FetchNews(ctx context.Context) ([]models.NewsItem, error) {
	items := []models.NewsItem{}
	if s.apiKey == "" {
		return items, nil
	}

	params := url.Values{
		"q":        {newsQuery},
		"pageSize": {fmt.Sprint(newsPageSize)},
		"sortBy":   {"publishedAt"},
		"language": {s.language},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build newsapi request: %w", err)
	}
	req.Header.Set("X-Api-Key", s.apiKey)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		logger.WithCtx(ctx).Warn("newsapi request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", apperr.Upstream("news provider unavailable"), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.WithCtx(ctx).Warn("newsapi responded with error", zap.Int("status", resp.StatusCode))
		return nil, apperr.Upstream("news provider unavailable")
	}

	var data struct {
		Articles []struct {
			Title       string  `json:"title"`
			URL         string  `json:"url"`
			URLToImage  *string `json:"urlToImage"`
			PublishedAt *string `json:"publishedAt"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxUpstreamBody)).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.Upstream("news provider returned invalid data"), err)
	}

	for _, a := range data.Articles {
		title := strings.TrimSpace(a.Title)
		if title == "" || a.URL == "" {
			continue
		}
		items = append(items, models.NewsItem{
			Title:       title,
			Link:        a.URL,
			Source:      a.Source.Name,
			Image:       a.URLToImage,
			PublishedAt: a.PublishedAt,
		})
	}
	return items, nil
}
