package utils

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Backend  BackendConfig
	Gateway  GatewayConfig
	Reminder ReminderConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

// BackendConfig points at the booking backend that mints payment intents
// and owns booking persistence.
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

// GatewayConfig holds the payment gateway session settings.
type GatewayConfig struct {
	BaseURL             string
	MerchantDisplayName string
	ReturnURL           string
	Timeout             time.Duration
}

type ReminderConfig struct {
	StartLeadMinutes int
	EndLeadMinutes   int
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("BACKEND_TIMEOUT_SECONDS", 15)
	viper.SetDefault("GATEWAY_TIMEOUT_SECONDS", 30)
	viper.SetDefault("GATEWAY_MERCHANT_NAME", "CarParking")
	viper.SetDefault("REMINDER_START_LEAD_MINUTES", 60)
	viper.SetDefault("REMINDER_END_LEAD_MINUTES", 30)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Backend: BackendConfig{
			BaseURL: viper.GetString("BACKEND_BASE_URL"),
			Timeout: time.Duration(viper.GetInt("BACKEND_TIMEOUT_SECONDS")) * time.Second,
		},
		Gateway: GatewayConfig{
			BaseURL:             viper.GetString("GATEWAY_BASE_URL"),
			MerchantDisplayName: viper.GetString("GATEWAY_MERCHANT_NAME"),
			ReturnURL:           viper.GetString("GATEWAY_RETURN_URL"),
			Timeout:             time.Duration(viper.GetInt("GATEWAY_TIMEOUT_SECONDS")) * time.Second,
		},
		Reminder: ReminderConfig{
			StartLeadMinutes: viper.GetInt("REMINDER_START_LEAD_MINUTES"),
			EndLeadMinutes:   viper.GetInt("REMINDER_END_LEAD_MINUTES"),
		},
	}

	return config, nil
}
