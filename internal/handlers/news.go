package handlers

import (
	"context"
	"net/http"

	"infocripto/internal/models"
	"infocripto/internal/utils/helpers"
)

type newsFetcher interface {
	FetchNews(ctx context.Context) ([]models.NewsItem, error)
}

type NewsHandler struct {
	news newsFetcher
}

func NewNewsHandler(news newsFetcher) *NewsHandler {
	return &NewsHandler{news: news}
}

// List godoc
// @Summary Latest crypto headlines
// @Tags news
// @Produce json
// @Success 200 {object} helpers.Response{data=[]models.NewsItem}
// @Failure 429 {object} helpers.Response
// @Failure 502 {object} helpers.Response
// @Router /news [get]
func (h *NewsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.news.FetchNews(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	helpers.JSON(w, http.StatusOK, items)
}
