package handlers

import (
	"context"
	"net/http"

	"infocripto/internal/apperr"
	"infocripto/internal/middleware"
	"infocripto/internal/models"
	"infocripto/internal/utils/helpers"
)

type userLister interface {
	ListUsers(ctx context.Context) ([]models.UserListItem, error)
}

type UserHandler struct {
	users userLister
}

func NewUserHandler(users userLister) *UserHandler {
	return &UserHandler{users: users}
}

// List godoc
// @Summary List registered users
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} helpers.Response{data=[]models.UserListItem}
// @Failure 401 {object} helpers.Response
// @Router /users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if users == nil {
		users = []models.UserListItem{}
	}
	helpers.JSON(w, http.StatusOK, users)
}

// Me godoc
// @Summary Current user
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} helpers.Response{data=models.UserResponse}
// @Failure 401 {object} helpers.Response
// @Router /users/me [get]
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, apperr.ErrUnauthenticated)
		return
	}
	helpers.JSON(w, http.StatusOK, user.Response())
}
