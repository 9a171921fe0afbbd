package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"infocripto/internal/apperr"
	"infocripto/internal/logger"

	"go.uber.org/zap"
)

const (
	coinGeckoProBase    = "https://pro-api.coingecko.com/api/v3"
	coinGeckoPublicBase = "https://api.coingecko.com/api/v3"

	// returned by the pro endpoint when a demo key is used
	coinGeckoDemoKeyErrorCode = 10011
)

type CoinGeckoService struct {
	HTTPClient *http.Client
	proBase    string
	publicBase string
	apiKey     string
	usePro     bool
}

func NewCoinGeckoService(usePro bool, apiKey string) *CoinGeckoService {
	return &CoinGeckoService{
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
		proBase:    coinGeckoProBase,
		publicBase: coinGeckoPublicBase,
		apiKey:     apiKey,
		usePro:     usePro,
	}
}

type MarketsQuery struct {
	VsCurrency string
	PerPage    int
	Page       int
}

type CoinSearchResult struct {
	Query string            `json:"query"`
	Coins []json.RawMessage `json:"coins"`
}

// Markets returns the CoinGecko /coins/markets payload unchanged.
func (s *CoinGeckoService) Markets(ctx context.Context, q MarketsQuery) (json.RawMessage, error) {
	params := url.Values{
		"vs_currency":             {q.VsCurrency},
		"order":                   {"market_cap_desc"},
		"per_page":                {strconv.Itoa(q.PerPage)},
		"page":                    {strconv.Itoa(q.Page)},
		"sparkline":               {"false"},
		"price_change_percentage": {"24h"},
	}
	return s.get(ctx, "/coins/markets", params)
}

// Search never reports a missing coin; it returns an empty list instead.
func (s *CoinGeckoService) Search(ctx context.Context, query string) (*CoinSearchResult, error) {
	body, err := s.get(ctx, "/search", url.Values{"query": {query}})
	if err != nil {
		return nil, err
	}
	var data struct {
		Coins []json.RawMessage `json:"coins"`
	}
	_ = json.Unmarshal(body, &data)
	if data.Coins == nil {
		data.Coins = []json.RawMessage{}
	}
	return &CoinSearchResult{Query: query, Coins: data.Coins}, nil
}

// CoinDetail accepts a CoinGecko id or a ticker symbol.
func (s *CoinGeckoService) CoinDetail(ctx context.Context, idOrSymbol string) (json.RawMessage, error) {
	id, err := s.resolveCoinID(ctx, idOrSymbol)
	if err != nil {
		return nil, err
	}
	return s.get(ctx, "/coins/"+url.PathEscape(id), coinParams(true))
}

func (s *CoinGeckoService) resolveCoinID(ctx context.Context, input string) (string, error) {
	body, err := s.get(ctx, "/coins/"+url.PathEscape(input), coinParams(false))
	if err == nil {
		var coin struct {
			ID string `json:"id"`
		}
		if json.Unmarshal(body, &coin) == nil && coin.ID != "" {
			return coin.ID, nil
		}
		return input, nil
	}
	var up *apperr.UpstreamStatusError
	if !errors.As(err, &up) || up.StatusCode != http.StatusNotFound {
		return "", err
	}

	body, err = s.get(ctx, "/search", url.Values{"query": {input}})
	if err != nil {
		return "", err
	}
	var found struct {
		Coins []struct {
			ID     string `json:"id"`
			Symbol string `json:"symbol"`
		} `json:"coins"`
	}
	_ = json.Unmarshal(body, &found)

	for _, c := range found.Coins {
		if strings.EqualFold(c.Symbol, input) {
			return c.ID, nil
		}
	}
	for _, c := range found.Coins {
		if strings.EqualFold(c.ID, input) {
			return c.ID, nil
		}
	}
	return "", apperr.WithReason(apperr.ErrNotFound, "coin not found")
}

func coinParams(marketData bool) url.Values {
	return url.Values{
		"localization":   {"false"},
		"tickers":        {"false"},
		"market_data":    {strconv.FormatBool(marketData)},
		"community_data": {"false"},
		"developer_data": {"false"},
		"sparkline":      {"false"},
	}
}

func (s *CoinGeckoService) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	usePro := s.usePro && s.apiKey != ""

	base := s.publicBase
	if usePro {
		base = s.proBase
	}
	status, body, err := s.do(ctx, base, path, params, usePro)
	if err != nil {
		return nil, err
	}

	if status == http.StatusBadRequest && usePro && coinGeckoErrorCode(body) == coinGeckoDemoKeyErrorCode {
		logger.WithCtx(ctx).Warn("coingecko demo key rejected by pro endpoint, falling back to public", zap.String("path", path))
		if status, body, err = s.do(ctx, s.publicBase, path, params, false); err != nil {
			return nil, err
		}
	}

	if status == http.StatusTooManyRequests {
		return nil, apperr.Upstream("CoinGecko rate limit (429). Try again.")
	}
	if status >= 400 {
		var detail any
		if json.Unmarshal(body, &detail) != nil {
			detail = string(body)
		}
		return nil, &apperr.UpstreamStatusError{Service: "coingecko", StatusCode: status, Body: detail}
	}
	return body, nil
}

func (s *CoinGeckoService) do(ctx context.Context, base, path string, params url.Values, withKey bool) (int, []byte, error) {
	endpoint := base + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("build coingecko request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if withKey {
		req.Header.Set("x-cg-pro-api-key", s.apiKey)
	}

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		logger.WithCtx(ctx).Warn("coingecko request failed", zap.String("path", path), zap.Error(err))
		return 0, nil, fmt.Errorf("%w: %v", apperr.Upstream("CoinGecko unavailable"), err)
	}
	defer resp.Body.Close()

	body, err := readUpstreamBody(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", apperr.Upstream("CoinGecko unavailable"), err)
	}
	return resp.StatusCode, body, nil
}

func coinGeckoErrorCode(body []byte) int {
	var payload struct {
		Status struct {
			ErrorCode int `json:"error_code"`
		} `json:"status"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return 0
	}
	return payload.Status.ErrorCode
}
