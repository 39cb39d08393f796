package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `env:",prefix=SERVER_"`

	// Database configuration
	Database DatabaseConfig `env:",prefix=DB_"`

	// Application configuration
	App AppConfig `env:",prefix=APP_"`

	// Administrator identity allowed to approve partners
	Admin AdminConfig `env:",prefix=ADMIN_"`

	// Partner approval / ID allocation configuration
	Approval ApprovalConfig `env:",prefix=APPROVAL_"`

	// Promotional-slot allocation configuration
	Promotion PromotionConfig `env:",prefix=PROMO_"`

	// Payment gateway configuration
	MercadoPago MercadoPagoConfig `env:",prefix=MERCADOPAGO_"`

	// Messaging provider configuration
	Twilio   TwilioConfig   `env:",prefix=TWILIO_"`
	Telegram TelegramConfig `env:",prefix=TELEGRAM_"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port         string `env:"PORT,default=8080"`
	Host         string `env:"HOST,default=0.0.0.0"`
	ReadTimeout  int    `env:"READ_TIMEOUT,default=30"`  // seconds
	WriteTimeout int    `env:"WRITE_TIMEOUT,default=30"` // seconds
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=5432"`
	User     string `env:"USER,default=postgres"`
	Password string `env:"PASSWORD,default=postgres"`
	Name     string `env:"NAME,default=plataforma_viagens"`
	SSLMode  string `env:"SSL_MODE,default=disable"`
	MaxConns int    `env:"MAX_CONNS,default=25"`
	MinConns int    `env:"MIN_CONNS,default=5"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Environment string `env:"ENVIRONMENT,default=development"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
	Debug       bool   `env:"DEBUG,default=false"`
}

// AdminConfig identifies the administrator account.
type AdminConfig struct {
	Email string `env:"EMAIL"`
}

// ApprovalConfig tunes the partner ID allocator.
type ApprovalConfig struct {
	// IDAttempts caps the retry loop of the unique-ID allocator.
	IDAttempts int `env:"ID_ATTEMPTS,default=20"`
}

// PromotionConfig tunes the promotional-slot allocation.
type PromotionConfig struct {
	MaxSlots    int    `env:"MAX_SLOTS,default=25"`
	CounterName string `env:"COUNTER_NAME,default=guide_launch"`
	Plan        string `env:"PLAN,default=basic"`
	Months      int    `env:"MONTHS,default=2"`
}

// MercadoPagoConfig holds payment gateway credentials and URLs.
type MercadoPagoConfig struct {
	AccessToken     string `env:"ACCESS_TOKEN"`
	BaseURL         string `env:"BASE_URL,default=https://api.mercadopago.com"`
	SiteURL         string `env:"SITE_URL,default=https://www.suaviagemaqui.com.br"`
	NotificationURL string `env:"NOTIFICATION_URL"`
}

// TwilioConfig holds the WhatsApp (Twilio) sender configuration.
type TwilioConfig struct {
	AccountSID string `env:"ACCOUNT_SID"`
	AuthToken  string `env:"AUTH_TOKEN"`
	From       string `env:"FROM,default=whatsapp:+14155238886"`
	AdminTo    string `env:"ADMIN_TO"`
	BaseURL    string `env:"BASE_URL,default=https://api.twilio.com"`
}

// TelegramConfig holds the Telegram bot configuration.
type TelegramConfig struct {
	BotToken string `env:"BOT_TOKEN"`
	ChatID   string `env:"CHAT_ID"`
	BaseURL  string `env:"BASE_URL,default=https://api.telegram.org"`
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	return &cfg, nil
}

// GetDatabaseURL returns the PostgreSQL connection URL
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if running in development environment
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production environment
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}
