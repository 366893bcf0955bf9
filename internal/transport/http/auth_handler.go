package http

import (
	"net/http"
	"strings"

	"study-session-engine/internal/auth"
)

// AuthHandler updates the shared identity adapter. Sign-in verifies a
// bearer token from the hosted auth service when a verifier is configured;
// without one (dev builds) it accepts an explicit userId parameter.
type AuthHandler struct {
	identity *auth.Adapter
	verifier *auth.TokenVerifier
}

func NewAuthHandler(identity *auth.Adapter, verifier *auth.TokenVerifier) *AuthHandler {
	return &AuthHandler{identity: identity, verifier: verifier}
}

func (h *AuthHandler) ServeSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.verifier == nil {
		userID := r.URL.Query().Get("userId")
		if userID == "" {
			http.Error(w, "missing userId", http.StatusBadRequest)
			return
		}
		h.identity.SignIn(userID)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	token, ok := bearerToken(r)
	if !ok {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return
	}
	userID, err := h.verifier.UserIDFromToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	h.identity.SignIn(userID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) ServeSignOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.identity.SignOut()
	w.WriteHeader(http.StatusNoContent)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
