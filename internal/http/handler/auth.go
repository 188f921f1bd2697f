package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"eaiser/internal/auth"
)

type AuthHandler struct {
	Svc *auth.Service
}

type signupReq struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleReq struct {
	IDToken string `json:"idToken"`
}

// userDTO is the public profile: the password hash never appears in any
// response body.
type userDTO struct {
	ID       uint64 `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

func publicUser(u *auth.User) userDTO {
	return userDTO{ID: u.ID, FullName: u.FullName, Email: u.Email}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.Svc.Signup(r.Context(), req.FullName, req.Email, req.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, map[string]string{"message": "User created"})
	case errors.Is(err, auth.ErrMissingFields):
		writeMessage(w, http.StatusBadRequest, "Missing required fields")
	case errors.Is(err, auth.ErrEmailInUse):
		writeMessage(w, http.StatusBadRequest, "Email already in use")
	default:
		log.Printf("signup error: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Server error")
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, u, err := h.Svc.Login(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": publicUser(u)})
	case errors.Is(err, auth.ErrMissingFields):
		writeMessage(w, http.StatusBadRequest, "Missing email or password")
	case errors.Is(err, auth.ErrInvalidCredentials):
		// same message for unknown email and wrong password
		writeMessage(w, http.StatusBadRequest, "Invalid credentials")
	default:
		log.Printf("login error: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Server error")
	}
}

func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	var req googleReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, u, err := h.Svc.GoogleLogin(r.Context(), req.IDToken)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": publicUser(u)})
	case errors.Is(err, auth.ErrMissingFields):
		writeMessage(w, http.StatusBadRequest, "Missing idToken")
	case errors.Is(err, auth.ErrMissingEmail):
		writeMessage(w, http.StatusBadRequest, "Google account has no email")
	case errors.Is(err, auth.ErrInvalidProviderToken):
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
	default:
		log.Printf("google sign-in error: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
