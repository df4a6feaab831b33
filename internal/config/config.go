// internal/config/config.go
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// PhonePeConfig holds the payment gateway credentials. SaltKey signs every
// outbound request and verifies every callback; its absence is fatal unless
// MockMode is on.
type PhonePeConfig struct {
	APIURL     string `yaml:"api_url"`
	MerchantID string `yaml:"merchant_id"`
	SaltKey    string `yaml:"salt_key"`
	SaltIndex  string `yaml:"salt_index"`
	MockMode   bool   `yaml:"mock_mode"`
}

type DatabaseConfig struct {
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

type EmailConfig struct {
	SMTPhost     string `yaml:"smtp_host"`
	SMTPport     int    `yaml:"smtp_port"`
	SMTPuser     string `yaml:"smtp_user"`
	SMTPpassword string `yaml:"smtp_password"`
	Sender       string `yaml:"sender"`
}

type Config struct {
	SiteName        string         `yaml:"site_name"`
	SiteDescription string         `yaml:"site_description"`
	CurrentYear     int            `yaml:"current_year"`
	BaseURL         string         `yaml:"base_url"`
	Port            int            `yaml:"port"`
	AppEnv          string         `yaml:"app_env"`
	Database        DatabaseConfig `yaml:"database"`
	PhonePe         PhonePeConfig  `yaml:"phonepe"`
	Email           EmailConfig    `yaml:"email"`
	CSRFAuthKey     string
}

func getStringEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
		slog.Warn("Environment variable is not a number, using default", "key", key, "value", valueStr)
	}
	return defaultValue
}

func getBoolEnvOrDefault(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
		slog.Warn("Environment variable is not a boolean, using default", "key", key, "value", valueStr)
	}
	return defaultValue
}

func LoadConfig(filename string) (*Config, error) {
	appEnvFromSystem := os.Getenv("APP_ENV")
	if appEnvFromSystem != "production" {
		if err := godotenv.Load("configs/.env"); err != nil {
			slog.Info("configs/.env not found, expecting variables from the environment", "error", err)
		} else {
			slog.Info("Environment variables loaded from configs/.env")
		}
	}

	file, err := os.Open(filename)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", filename)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open config file '%s': %w", filename, err)
	}
	defer file.Close()

	var cfg Config
	if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode YAML from '%s': %w", filename, err)
	}

	cfg.AppEnv = getStringEnvOrDefault("APP_ENV", cfg.AppEnv)
	isProduction := cfg.AppEnv == "production"

	cfg.BaseURL = getStringEnvOrDefault("BASE_URL", cfg.BaseURL)
	cfg.Port = getIntEnvOrDefault("PORT", cfg.Port)

	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.Database.Path = dsn
		cfg.Database.Host = ""
		cfg.Database.Port = 0
		cfg.Database.User = ""
		cfg.Database.DBName = ""
	} else {
		cfg.Database.Host = getStringEnvOrDefault("DB_HOST", cfg.Database.Host)
		cfg.Database.Port = getIntEnvOrDefault("DB_PORT", cfg.Database.Port)
		cfg.Database.User = getStringEnvOrDefault("DB_USER", cfg.Database.User)
		cfg.Database.DBName = getStringEnvOrDefault("DB_NAME", cfg.Database.DBName)
		cfg.Database.Path = ""
	}
	cfg.Database.Password = getStringEnvOrDefault("DB_PASSWORD", "")
	if isProduction && cfg.Database.Host != "" && cfg.Database.Password == "" && !strings.Contains(getStringEnvOrDefault("DATABASE_DSN", ""), cfg.Database.User) {
		return nil, fmt.Errorf("DB_PASSWORD must be set in production unless DATABASE_DSN carries full credentials")
	}

	cfg.PhonePe.APIURL = getStringEnvOrDefault("PHONEPE_API_URL", cfg.PhonePe.APIURL)
	cfg.PhonePe.MerchantID = getStringEnvOrDefault("PHONEPE_MERCHANT_ID", cfg.PhonePe.MerchantID)
	cfg.PhonePe.SaltKey = getStringEnvOrDefault("PHONEPE_SALT_KEY", cfg.PhonePe.SaltKey)
	cfg.PhonePe.SaltIndex = getStringEnvOrDefault("PHONEPE_SALT_INDEX", cfg.PhonePe.SaltIndex)
	cfg.PhonePe.MockMode = getBoolEnvOrDefault("PHONEPE_MOCK_MODE", cfg.PhonePe.MockMode)
	if cfg.PhonePe.SaltIndex == "" {
		cfg.PhonePe.SaltIndex = "1"
	}
	if cfg.PhonePe.APIURL == "" {
		cfg.PhonePe.APIURL = "https://api-preprod.phonepe.com/apis/pg-sandbox/pg/v1/pay"
	}
	if !cfg.PhonePe.MockMode && (cfg.PhonePe.MerchantID == "" || cfg.PhonePe.SaltKey == "") {
		return nil, fmt.Errorf("PHONEPE_MERCHANT_ID and PHONEPE_SALT_KEY must be set when mock mode is off")
	}

	cfg.CSRFAuthKey = getStringEnvOrDefault("CSRF_AUTH_KEY", "")
	if isProduction && cfg.CSRFAuthKey == "" {
		return nil, fmt.Errorf("CSRF_AUTH_KEY must be set in production (a 32-byte random key is recommended)")
	}
	if !isProduction && cfg.CSRFAuthKey == "" {
		slog.Warn("CSRF_AUTH_KEY is not set, nosurf will generate its own key (development only)")
	}

	cfg.Email.SMTPhost = getStringEnvOrDefault("SMTP_HOST", cfg.Email.SMTPhost)
	cfg.Email.SMTPport = getIntEnvOrDefault("SMTP_PORT", cfg.Email.SMTPport)
	cfg.Email.SMTPuser = getStringEnvOrDefault("SMTP_USER", cfg.Email.SMTPuser)
	cfg.Email.SMTPpassword = getStringEnvOrDefault("SMTP_PASSWORD", "")
	cfg.Email.Sender = getStringEnvOrDefault("EMAIL_SENDER", cfg.Email.Sender)
	if isProduction && (cfg.Email.SMTPhost == "" || cfg.Email.Sender == "") {
		slog.Warn("SMTP is not fully configured for production, booking confirmation mail will not be sent")
	}

	if cfg.CurrentYear == 0 {
		cfg.CurrentYear = time.Now().Year()
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BASE_URL is not set")
	}
	if isProduction && !strings.HasPrefix(cfg.BaseURL, "https://") {
		return nil, fmt.Errorf("BASE_URL must start with https:// in production")
	}
	if cfg.Database.Path == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database connection parameters are not set (DATABASE_DSN or DB_HOST etc.)")
	}
	if cfg.Database.Host != "" {
		if cfg.Database.User == "" {
			return nil, fmt.Errorf("DB_USER is not set")
		}
		if cfg.Database.DBName == "" {
			return nil, fmt.Errorf("DB_NAME is not set")
		}
	}

	slog.Info("Configuration loaded", "app_env", cfg.AppEnv, "base_url", cfg.BaseURL, "port", cfg.Port, "phonepe_mock", cfg.PhonePe.MockMode)
	return &cfg, nil
}

func InitLogger(appEnv string) {
	var logger *slog.Logger
	logLevel := slog.LevelInfo

	if appEnv == "development" {
		logLevel = slog.LevelDebug
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: false,
		}))
	}
	slog.SetDefault(logger)
}
