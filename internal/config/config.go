package config

import (
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
}

type Config struct {
	DB_URL        string
	Port          string
	JWTSecret     string
	Environment   string
	BaseURL       string
	UploadDir     string
	MaxUploadMB   int64
	AdminUser     string
	AdminPassword string
	CorsConfig    cors.Options
	S3            S3Config
}

var Envs = initConfig()

func initConfig() Config {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("No", envFile, "file found")
	}

	return Config{
		DB_URL:        getEnv("DB_URL", ""),
		Port:          getEnv("PORT", "8080"),
		JWTSecret:     getEnv("JWT_SECRET", "not-so-secret-now-is-it?"),
		Environment:   getEnv("ENV", "development"),
		BaseURL:       getEnv("BASE_URL", "http://localhost:8080"),
		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadMB:   getEnvInt("MAX_UPLOAD_MB", 50),
		AdminUser:     getEnv("ADMIN_USER", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		CorsConfig:    CorsConfig(),
		S3: S3Config{
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			BucketName:      getEnv("S3_BUCKET_NAME", ""),
			Region:          getEnv("S3_REGION", "auto"),
		},
	}
}

// Gets the env by key or fallbacks
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil && n > 0 {
			return n
		}
		log.Println("Ignoring invalid value for", key)
	}
	return fallback
}

func CorsConfig() cors.Options {
	return cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "https://protecteddata.vercel.app"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}
}
