package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port    string
	Env     string
	BaseURL string
}

// IsProduction reports whether the server runs in production mode.
func (c *ServerConfig) IsProduction() bool {
	return c.Env == "production"
}

// SessionConfig holds session and cookie configuration
type SessionConfig struct {
	TTL                time.Duration
	RememberTTL        time.Duration
	CookieName         string
	RememberCookieName string
}

// TokenConfig holds verification token lifetimes
type TokenConfig struct {
	VerificationTTL  time.Duration
	PasswordResetTTL time.Duration
}

// AuthConfig holds registration and password hashing policy
type AuthConfig struct {
	AllowedDomains []string
	BcryptCost     int
}

// DomainAllowed checks an email address against the registration allow-list.
// An empty allow-list accepts every domain.
func (c *AuthConfig) DomainAllowed(email string) bool {
	if len(c.AllowedDomains) == 0 {
		return true
	}
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	domain := strings.ToLower(email[at+1:])
	for _, allowed := range c.AllowedDomains {
		if domain == strings.ToLower(strings.TrimSpace(allowed)) {
			return true
		}
	}
	return false
}

// JWTConfig holds signing configuration for the remember-me cookie
type JWTConfig struct {
	SigningKey string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Prefix string
}

// Config holds all configuration
type Config struct {
	DB      DBConfig
	Server  ServerConfig
	Session SessionConfig
	Token   TokenConfig
	Auth    AuthConfig
	JWT     JWTConfig
	Log     LogConfig
	Metrics MetricsConfig
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Not returning error as .env file is optional
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	config := &Config{
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			DBName:          getEnv("DB_NAME", "pms_service"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Info),
		},
		Server: ServerConfig{
			Port:    getEnv("SERVER_PORT", "8081"),
			Env:     getEnv("APP_ENV", "development"),
			BaseURL: getEnv("APP_BASE_URL", "http://localhost:8081"),
		},
		Session: SessionConfig{
			TTL:                getEnvAsDuration("SESSION_TTL", 12*time.Hour),
			RememberTTL:        getEnvAsDuration("SESSION_REMEMBER_TTL", 30*24*time.Hour),
			CookieName:         getEnv("SESSION_COOKIE_NAME", "pms_session"),
			RememberCookieName: getEnv("SESSION_REMEMBER_COOKIE_NAME", "pms_remember"),
		},
		Token: TokenConfig{
			VerificationTTL:  getEnvAsDuration("TOKEN_VERIFICATION_TTL", 24*time.Hour),
			PasswordResetTTL: getEnvAsDuration("TOKEN_PASSWORD_RESET_TTL", 1*time.Hour),
		},
		Auth: AuthConfig{
			AllowedDomains: getEnvAsSlice("AUTH_ALLOWED_DOMAINS", []string{"gmail.com"}),
			BcryptCost:     getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		JWT: JWTConfig{
			SigningKey: getEnv("JWT_SIGNING_KEY", "pmsservicesecretkey"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", "pms"),
		},
	}

	return config, nil
}

// LogConfig returns the configuration as a zap logger-friendly format
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("environment", c.Server.Env),
		zap.String("db_host", c.DB.Host),
		zap.String("db_port", c.DB.Port),
		zap.String("db_user", c.DB.User),
		zap.String("db_name", c.DB.DBName),
		zap.String("server_port", c.Server.Port),
	}
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as comma-separated lists
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}

// Helper function to get environment variables as log levels
func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
