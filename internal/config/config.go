package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	JWTSecret     string
	ServerPort    string
	UploadFolder  string
	AdminUsername string
	AdminPassword string
	AdminEmail    string
}

func Load() *Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	return &Config{
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "postgres"),
		DBPassword:    getEnv("DB_PASSWORD", "postgres"),
		DBName:        getEnv("DB_NAME", "efe"),
		JWTSecret:     getEnv("JWT_SECRET", "super-secret-key-change-me"),
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		UploadFolder:  getEnv("UPLOAD_FOLDER", "./uploads"),
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
