package handlers

import (
	"context"
	"net/http"

	"infocripto/internal/services"
	"infocripto/internal/utils/helpers"
)

const forgotPasswordMessage = "If the email exists, a reset link has been sent."

type passwordService interface {
	RequestReset(ctx context.Context, email string, mode services.DeliveryMode) services.ResetOutcome
	ResetPassword(ctx context.Context, rawToken, newPassword string) error
}

// PasswordDebug exposes the reset link in forgot-password responses. Dev only.
type PasswordDebug struct {
	ReturnResetLink bool
	SyncEmail       bool
}

type PasswordHandler struct {
	svc   passwordService
	debug PasswordDebug
}

func NewPasswordHandler(svc passwordService, debug PasswordDebug) *PasswordHandler {
	return &PasswordHandler{svc: svc, debug: debug}
}

type forgotRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type forgotResponse struct {
	Message        string `json:"message"`
	DebugResetLink string `json:"debug_reset_link,omitempty"`
	EmailStatus    string `json:"email_status,omitempty"`
	EmailError     string `json:"email_error,omitempty"`
}

// Forgot godoc
// @Summary Request a password reset link
// @Description Always answers 200 with the same message, whether or not the email is registered.
// @Tags auth
// @Accept json
// @Produce json
// @Param input body forgotRequest true "Account email"
// @Success 200 {object} helpers.Response{data=forgotResponse}
// @Failure 400 {object} helpers.Response
// @Router /auth/forgot-password [post]
func (h *PasswordHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	var req forgotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	mode := services.DeliverQueued
	if h.debug.ReturnResetLink && h.debug.SyncEmail {
		mode = services.DeliverSync
	}
	out := h.svc.RequestReset(r.Context(), req.Email, mode)

	resp := forgotResponse{Message: forgotPasswordMessage}
	if h.debug.ReturnResetLink && out.Issued {
		resp.DebugResetLink = out.Link
		resp.EmailStatus = out.EmailStatus
		resp.EmailError = out.EmailError
	}
	helpers.JSON(w, http.StatusOK, resp)
}

type resetRequest struct {
	Token       string `json:"token" validate:"required,min=10"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}

// Reset godoc
// @Summary Set a new password with a reset token
// @Tags auth
// @Accept json
// @Produce json
// @Param input body resetRequest true "Token and new password"
// @Success 200 {object} helpers.Response
// @Failure 400 {object} helpers.Response "invalid or expired token"
// @Router /auth/reset-password [post]
func (h *PasswordHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.svc.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	helpers.JSON(w, http.StatusOK, map[string]string{"message": "Password has been reset."})
}
