package handler

import (
	"net/http"

	"github.com/agribiz-identity/internal/application/profile"
	"github.com/agribiz-identity/internal/application/registration"
	"github.com/agribiz-identity/internal/application/reset"
	"github.com/agribiz-identity/internal/application/session"
	"github.com/agribiz-identity/internal/domain"
	"github.com/agribiz-identity/internal/transport/http/middleware"
)

// AuthHandler handles registration, verification, login and password recovery.
type AuthHandler struct {
	registration registration.Service
	sessions     session.Service
	reset        reset.Service
	profile      profile.Service
}

func NewAuthHandler(reg registration.Service, sessions session.Service, rst reset.Service, prof profile.Service) *AuthHandler {
	return &AuthHandler{registration: reg, sessions: sessions, reset: rst, profile: prof}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !decodeValid(w, r, &req) {
		return
	}
	res, err := h.registration.Register(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req registration.VerifyRequest
	if !decodeValid(w, r, &req) {
		return
	}
	res, err := h.registration.ConfirmVerification(r.Context(), req.Email, req.Code)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuthEnvelope(res, "email verified"))
}

func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req registration.ResendRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if err := h.registration.ResendVerification(r.Context(), req.Email); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "verification code sent"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req session.LoginRequest
	if !decodeValid(w, r, &req) {
		return
	}
	res, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuthEnvelope(res, ""))
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req reset.ForgotPasswordRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if err := h.reset.RequestReset(r.Context(), req.Email); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "password reset link sent"})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req reset.ResetPasswordRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if err := h.reset.ConfirmReset(r.Context(), req.Token, req.NewPassword); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "password has been reset"})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req profile.ChangePasswordRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if err := h.profile.ChangePassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "password changed"})
}
