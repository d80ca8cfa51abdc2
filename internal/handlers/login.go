package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mrkrexx/404AI/internal/auth"
)

// LoginRequest carries operator credentials.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse returns the opened session.
type LoginResponse struct {
	Success bool      `json:"success"`
	Token   string    `json:"token"`
	User    auth.User `json:"user"`
}

// Login handles POST /api/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil {
		h.Error(w, http.StatusNotFound, "login disabled")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	session, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.Error(w, http.StatusUnauthorized, err.Error())
			return
		}
		h.Error(w, http.StatusInternalServerError, "login failed")
		return
	}

	h.JSON(w, http.StatusOK, LoginResponse{
		Success: true,
		Token:   session.Token,
		User:    session.User,
	})
}
