package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"kodbank/internal/models"
	"kodbank/internal/services"
	"kodbank/internal/storage"

	"github.com/rs/zerolog"
)

type AuthHandler struct {
	users         *services.UserService
	tokens        *services.TokenService
	secureCookies bool
	logger        zerolog.Logger
}

func NewAuthHandler(users *services.UserService, tokens *services.TokenService, secureCookies bool, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		users:         users,
		tokens:        tokens,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	uid, err := h.users.Register(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields):
			respondWithError(w, http.StatusBadRequest, "Missing required fields")
		case errors.Is(err, storage.ErrDuplicateIdentity):
			respondWithError(w, http.StatusBadRequest, "Username or Email already exists")
		default:
			h.logger.Error().Err(err).Msg("Registration failed")
			respondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, models.RegisterResponse{
		Message: "User registered successfully",
		UserID:  uid,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields):
			respondWithError(w, http.StatusBadRequest, "Missing required fields")
		case errors.Is(err, services.ErrInvalidCredentials):
			respondWithError(w, http.StatusUnauthorized, "Invalid username or password")
		default:
			h.logger.Error().Err(err).Msg("Login failed")
			respondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	token, expiry, err := h.tokens.Issue(r.Context(), user)
	if err != nil {
		h.logger.Error().Err(err).Int("uid", user.UID).Msg("Token issuance failed")
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		Expires:  expiry,
		MaxAge:   int(time.Until(expiry).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	respondWithJSON(w, http.StatusOK, models.LoginResponse{
		Message: "Login successful",
		User:    user.Public(),
	})
}
