package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBUrl         string
	Port          string
	JWTSecret     string
	TokenTTL      time.Duration
	SweepInterval time.Duration
	CORSOrigins   []string
	SecureCookies bool
}

func LoadConfig() Config {
	err := godotenv.Load()
	if err != nil {
		log.Println(".env file not found, relying on environment variables")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default-secret-key-change-in-production"
		log.Println("JWT_SECRET not set, using default key")
	}

	return Config{
		DBUrl:         os.Getenv("DB_URL"),
		Port:          port,
		JWTSecret:     secret,
		TokenTTL:      durationMinutes("TOKEN_TTL_MINUTES", 60),
		SweepInterval: durationMinutes("TOKEN_SWEEP_INTERVAL_MINUTES", 15),
		CORSOrigins:   parseCSV(os.Getenv("CORS_ALLOWED_ORIGINS")),
		SecureCookies: os.Getenv("SECURE_COOKIES") == "true",
	}
}

func durationMinutes(key string, def int) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return time.Duration(def) * time.Minute
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		log.Printf("invalid %s value %q, using default %d", key, raw, def)
		return time.Duration(def) * time.Minute
	}
	return time.Duration(minutes) * time.Minute
}

func parseCSV(input string) []string {
	if strings.TrimSpace(input) == "" {
		return []string{"*"}
	}
	var out []string
	for _, part := range strings.Split(input, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
