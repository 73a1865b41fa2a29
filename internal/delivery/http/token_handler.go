package http

import (
	"encoding/json"
	"net/http"

	"github.com/herberelias/cripto-signals/internal/repository"
)

// TokenHandler manages FCM device token registration.
type TokenHandler struct {
	tokens *repository.TokenRepository
}

func NewTokenHandler(tokens *repository.TokenRepository) *TokenHandler {
	return &TokenHandler{tokens: tokens}
}

// Register handles POST /api/tokens/register
func (h *TokenHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Token    string `json:"token"`
		Platform string `json:"platform"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Platform == "" {
		req.Platform = "android"
	}

	h.tokens.RegisterToken(req.Token, req.Platform)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Token registered",
		"count":   h.tokens.GetTokenCount(),
	})
}

// Unregister handles DELETE /api/tokens
func (h *TokenHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.tokens.UnregisterToken(req.Token)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Token removed"})
}
