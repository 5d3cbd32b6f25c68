package config

import (
	"os"
	"strings"
)

type Config struct {
	// Database
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	// Server
	Port           string
	TrustedProxies []string

	// Identity provider tokens are HS256-signed with this secret.
	JWTSecret string

	// Classification
	GeminiAPIKey string
	GeminiModel  string

	// Optional email delivery for notifications
	SendGridAPIKey string
	EmailFromName  string
	EmailFromAddr  string
}

func Load() *Config {
	cfg := &Config{
		DBUser:         getEnv("DB_USER", "root"),
		DBPassword:     getEnv("DB_PASSWORD", "password"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "3306"),
		DBName:         getEnv("DB_NAME", "greenloop"),
		Port:           getEnv("PORT", "8080"),
		JWTSecret:      getEnv("JWT_SECRET", "your-secret-key-here"),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		EmailFromName:  getEnv("EMAIL_FROM_NAME", "GreenLoop"),
		EmailFromAddr:  getEnv("EMAIL_FROM_ADDR", "no-reply@greenloop.eco"),
	}

	trustedProxies := os.Getenv("TRUSTED_PROXIES")
	if trustedProxies != "" {
		cfg.TrustedProxies = strings.Split(trustedProxies, ",")
		for i, proxy := range cfg.TrustedProxies {
			cfg.TrustedProxies[i] = strings.TrimSpace(proxy)
		}
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
