package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/sfmarket/daily-spin/internal/auth"
	"github.com/sfmarket/daily-spin/internal/models"
)

type AdminHandler struct {
	creds  auth.Credentials
	tokens *auth.TokenService
	log    zerolog.Logger
}

func NewAdminHandler(creds auth.Credentials, tokens *auth.TokenService, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{creds: creds, tokens: tokens, log: log}
}

// Login handles POST /api/admin/login. A missing or mismatched pair
// yields 401 without revealing which field was wrong.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeFail(w, http.StatusBadRequest, "username and password are required", "")
		return
	}

	if !h.creds.Check(req.Username, req.Password) {
		writeFail(w, http.StatusUnauthorized, "invalid username or password", "")
		return
	}

	token, expiresAt, err := h.tokens.Generate(req.Username, time.Now())
	if err != nil {
		h.log.Error().Err(err).Msg("token generation failed")
		writeFail(w, http.StatusInternalServerError, "login failed", err.Error())
		return
	}

	writeOK(w, http.StatusOK, models.LoginData{
		Token:      token,
		ExpiryTime: expiresAt.UnixMilli(),
	}, "login successful")
}
