package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"infocripto/internal/apperr"
	"infocripto/internal/services"
	"infocripto/internal/utils/helpers"

	"github.com/gorilla/mux"
)

type priceService interface {
	Markets(ctx context.Context, q services.MarketsQuery) (json.RawMessage, error)
	Search(ctx context.Context, query string) (*services.CoinSearchResult, error)
	CoinDetail(ctx context.Context, idOrSymbol string) (json.RawMessage, error)
}

type PriceHandler struct {
	svc priceService
}

func NewPriceHandler(svc priceService) *PriceHandler {
	return &PriceHandler{svc: svc}
}

// Markets godoc
// @Summary Coin market listing
// @Tags prices
// @Produce json
// @Param vs_currency query string false "Quote currency" default(brl)
// @Param per_page query int false "Page size (1-250)" default(10)
// @Param page query int false "Page (>=1)" default(1)
// @Success 200 {object} helpers.Response
// @Failure 400 {object} helpers.Response
// @Failure 502 {object} helpers.Response
// @Router /api/prices/markets [get]
func (h *PriceHandler) Markets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mq := services.MarketsQuery{VsCurrency: strings.ToLower(strings.TrimSpace(q.Get("vs_currency")))}
	if mq.VsCurrency == "" {
		mq.VsCurrency = "brl"
	}

	var err error
	if mq.PerPage, err = intParam(q.Get("per_page"), 10, 1, 250); err != nil {
		writeError(w, r, apperr.Validation("per_page must be an integer between 1 and 250"))
		return
	}
	if mq.Page, err = intParam(q.Get("page"), 1, 1, 0); err != nil {
		writeError(w, r, apperr.Validation("page must be an integer >= 1"))
		return
	}

	body, err := h.svc.Markets(r.Context(), mq)
	if err != nil {
		writeError(w, r, err)
		return
	}
	helpers.JSON(w, http.StatusOK, body)
}

// Search godoc
// @Summary Search coins by name or symbol
// @Tags prices
// @Produce json
// @Param q query string true "Search text"
// @Success 200 {object} helpers.Response{data=services.CoinSearchResult}
// @Failure 400 {object} helpers.Response
// @Router /api/prices/coins/search [get]
func (h *PriceHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, r, apperr.Validation("q is required"))
		return
	}
	res, err := h.svc.Search(r.Context(), query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	helpers.JSON(w, http.StatusOK, res)
}

// Coin godoc
// @Summary Coin detail by id or symbol
// @Tags prices
// @Produce json
// @Param coin_id path string true "CoinGecko id or ticker symbol"
// @Success 200 {object} helpers.Response
// @Failure 404 {object} helpers.Response "coin not found"
// @Router /api/prices/coins/{coin_id} [get]
func (h *PriceHandler) Coin(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["coin_id"])
	if id == "" {
		writeError(w, r, apperr.Validation("coin_id is required"))
		return
	}
	body, err := h.svc.CoinDetail(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	helpers.JSON(w, http.StatusOK, body)
}

// intParam parses raw, falling back to def when empty. hi <= 0 means unbounded.
func intParam(raw string, def, lo, hi int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < lo || (hi > 0 && n > hi) {
		return 0, strconv.ErrRange
	}
	return n, nil
}
