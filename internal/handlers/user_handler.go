package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"kodbank/internal/middleware"
	"kodbank/internal/models"
	"kodbank/internal/services"
	"kodbank/internal/storage"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type UserHandler struct {
	users  *services.UserService
	logger zerolog.Logger
}

func NewUserHandler(users *services.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// DeleteUser removes an account. Deleting a user cascades to all of their
// session token records.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userRole, ok := middleware.GetUserRole(r)
	if !ok || userRole != string(models.RoleAdmin) {
		respondWithError(w, http.StatusForbidden, "Only admins can delete users")
		return
	}

	uid, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.users.Delete(r.Context(), uid); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error().Err(err).Int("uid", uid).Msg("User deletion failed")
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}
