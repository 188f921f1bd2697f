package handler

import (
	"errors"
	"log"
	"net/http"

	"eaiser/internal/auth"
)

type MeHandler struct {
	Svc *auth.Service
}

// Me returns the profile behind a verified token. A valid token whose
// subject record is gone is a 404, not a 401.
func (h *MeHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	u, err := h.Svc.Identify(r.Context(), uid)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"user": publicUser(u)})
	case errors.Is(err, auth.ErrUserNotFound):
		writeMessage(w, http.StatusNotFound, "User not found")
	default:
		log.Printf("me error: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Server error")
	}
}
