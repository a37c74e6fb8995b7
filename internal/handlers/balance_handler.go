package handlers

import (
	"errors"
	"net/http"

	"kodbank/internal/middleware"
	"kodbank/internal/models"
	"kodbank/internal/services"
	"kodbank/internal/storage"

	"github.com/rs/zerolog"
)

type BalanceHandler struct {
	users  *services.UserService
	logger zerolog.Logger
}

func NewBalanceHandler(users *services.UserService, logger zerolog.Logger) *BalanceHandler {
	return &BalanceHandler{users: users, logger: logger}
}

// GetBalance reads the balance for the identity resolved by the
// authentication middleware. The user may have been deleted after the token
// was issued, hence the 404 path.
func (h *BalanceHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsername(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	balance, err := h.users.Balance(r.Context(), username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error().Err(err).Str("username", username).Msg("Balance check failed")
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, models.BalanceResponse{Balance: balance})
}
