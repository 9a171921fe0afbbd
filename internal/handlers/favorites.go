package handlers

import (
	"context"
	"net/http"

	"infocripto/internal/apperr"
	"infocripto/internal/middleware"
	"infocripto/internal/models"
	"infocripto/internal/utils/helpers"

	"github.com/gorilla/mux"
)

type favoriteService interface {
	List(ctx context.Context, userID string) ([]models.Favorite, error)
	Add(ctx context.Context, userID, coinID string) (*models.Favorite, error)
	Remove(ctx context.Context, userID, coinID string) error
}

type FavoriteHandler struct {
	svc favoriteService
}

func NewFavoriteHandler(svc favoriteService) *FavoriteHandler {
	return &FavoriteHandler{svc: svc}
}

type favoriteRequest struct {
	CoinID string `json:"coin_id" validate:"required,max=100"`
}

// List godoc
// @Summary List the caller's favorite coins
// @Tags favorites
// @Security BearerAuth
// @Produce json
// @Success 200 {object} helpers.Response{data=[]models.Favorite}
// @Failure 401 {object} helpers.Response
// @Router /favorites [get]
func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, apperr.ErrUnauthenticated)
		return
	}
	favs, err := h.svc.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if favs == nil {
		favs = []models.Favorite{}
	}
	helpers.JSON(w, http.StatusOK, favs)
}

// Add godoc
// @Summary Add a coin to favorites
// @Tags favorites
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param input body favoriteRequest true "Coin"
// @Success 201 {object} helpers.Response{data=models.Favorite}
// @Failure 400 {object} helpers.Response
// @Failure 409 {object} helpers.Response "already a favorite"
// @Router /favorites [post]
func (h *FavoriteHandler) Add(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, apperr.ErrUnauthenticated)
		return
	}
	var req favoriteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	fav, err := h.svc.Add(r.Context(), user.ID, req.CoinID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	helpers.JSON(w, http.StatusCreated, fav)
}

// Remove godoc
// @Summary Remove a coin from favorites
// @Tags favorites
// @Security BearerAuth
// @Param coin_id path string true "CoinGecko id"
// @Success 204
// @Failure 404 {object} helpers.Response
// @Router /favorites/{coin_id} [delete]
func (h *FavoriteHandler) Remove(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, apperr.ErrUnauthenticated)
		return
	}
	if err := h.svc.Remove(r.Context(), user.ID, mux.Vars(r)["coin_id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
