package handlers

import (
	"net/http"

	"infocripto/internal/utils/helpers"
)

type rootResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Root godoc
// @Summary Health check
// @Tags meta
// @Produce json
// @Success 200 {object} helpers.Response{data=rootResponse}
// @Router / [get]
func Root(w http.ResponseWriter, _ *http.Request) {
	helpers.JSON(w, http.StatusOK, rootResponse{OK: true, Message: "infoCripto API running"})
}
