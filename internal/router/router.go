package router

import (
	"database/sql"
	"net/http"

	"kodbank/internal/config"
	"kodbank/internal/handlers"
	"kodbank/internal/middleware"
	"kodbank/internal/services"
	mysqlstore "kodbank/internal/storage/mysql"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

func SetupRouter(cfg config.Config, db *sql.DB, logger zerolog.Logger) *mux.Router {
	userStore := mysqlstore.NewUserStore(db, logger)
	tokenStore := mysqlstore.NewTokenStore(db, logger)

	hasher := services.NewPasswordHasher(10)
	userService := services.NewUserService(userStore, hasher, logger)
	tokenService := services.NewTokenService(cfg.JWTSecret, cfg.TokenTTL, tokenStore, logger)

	authHandler := handlers.NewAuthHandler(userService, tokenService, cfg.SecureCookies, logger)
	balanceHandler := handlers.NewBalanceHandler(userService, logger)
	userHandler := handlers.NewUserHandler(userService, logger)

	r := mux.NewRouter()

	r.Use(middleware.ErrorHandling(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.CORSOrigins))

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/login", authHandler.Login).Methods("POST")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Authentication(tokenService, logger))
	protected.HandleFunc("/balance", balanceHandler.GetBalance).Methods("GET")
	protected.HandleFunc("/users/{id}", userHandler.DeleteUser).Methods("DELETE")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	return r
}
