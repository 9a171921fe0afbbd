package handlers

import (
	"context"
	"net/http"

	"infocripto/internal/models"
	"infocripto/internal/utils/helpers"
)

type newsletterService interface {
	Subscribe(ctx context.Context, email string, name *string) (models.SubscribeResult, error)
}

type NewsletterHandler struct {
	svc newsletterService
}

func NewNewsletterHandler(svc newsletterService) *NewsletterHandler {
	return &NewsletterHandler{svc: svc}
}

type subscribeRequest struct {
	Email string  `json:"email" validate:"required,email"`
	Name  *string `json:"name,omitempty" validate:"omitempty,max=120"`
}

// Subscribe godoc
// @Summary Subscribe an email to the newsletter
// @Tags newsletter
// @Accept json
// @Produce json
// @Param input body subscribeRequest true "Subscriber"
// @Success 200 {object} helpers.Response{data=models.SubscribeResult}
// @Failure 400 {object} helpers.Response
// @Failure 502 {object} helpers.Response
// @Router /api/newsletter/subscribe [post]
func (h *NewsletterHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.Subscribe(r.Context(), req.Email, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	helpers.JSON(w, http.StatusOK, res)
}
