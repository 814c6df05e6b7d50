package config

import (
	"time"

	"github.com/courseloom/courseloom-backend/internal/logger"
	"github.com/courseloom/courseloom-backend/internal/utils"
)

// Config is built once in main and handed to the components that need it.
// Nothing reads the environment after startup.
type Config struct {
	Port        string
	Env         string
	FrontendURL string

	JWTSecretKey string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresName     string

	RedisAddr     string
	RedisPassword string

	StripeSecretKey     string
	StripeWebhookSecret string
	CheckoutCurrency    string

	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
}

func Load(log *logger.Logger) *Config {
	return &Config{
		Port:        utils.GetEnv("PORT", "8080", log),
		Env:         utils.GetEnv("APP_ENV", "development", log),
		FrontendURL: utils.GetEnv("FRONTEND_URL", "http://localhost:5173", log),

		JWTSecretKey: utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),
		AccessTTL:    time.Duration(utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)) * time.Second,
		RefreshTTL:   time.Duration(utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)) * time.Second,

		PostgresHost:     utils.GetEnv("POSTGRES_HOST", "localhost", log),
		PostgresPort:     utils.GetEnv("POSTGRES_PORT", "5432", log),
		PostgresUser:     utils.GetEnv("POSTGRES_USER", "postgres", log),
		PostgresPassword: utils.GetEnv("POSTGRES_PASSWORD", "", log),
		PostgresName:     utils.GetEnv("POSTGRES_NAME", "courseloom", log),

		RedisAddr:     utils.GetEnv("REDIS_ADDR", "", log),
		RedisPassword: utils.GetEnv("REDIS_PASSWORD", "", log),

		StripeSecretKey:     utils.GetEnv("STRIPE_SECRET_KEY", "", log),
		StripeWebhookSecret: utils.GetEnv("STRIPE_WEBHOOK_SECRET", "", log),
		CheckoutCurrency:    utils.GetEnv("CHECKOUT_CURRENCY", "inr", log),

		CloudinaryName:      utils.GetEnv("CLOUDINARY_NAME", "", log),
		CloudinaryAPIKey:    utils.GetEnv("CLOUDINARY_API_KEY", "", log),
		CloudinaryAPISecret: utils.GetEnv("CLOUDINARY_API_SECRET", "", log),
	}
}
