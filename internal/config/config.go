package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds room-service configuration.
type Config struct {
	AppEnv   string // APP_ENV
	AppHost  string // APP_HOST
	HTTPPort string // APP_PORT or HTTP_PORT
	LogLevel string // LOG_LEVEL

	// PostgreSQL. Empty DB_HOST switches the repository to the in-memory
	// store (useful for local play and tests).
	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Database string
		SSLMode  string
	}

	// WebSocket
	WSReadBufferSize  int
	WSWriteBufferSize int
	WSMaxMessageSize  int64

	// Room rules
	RoomDefaultMaxPlayers int
	RoomCodeAttempts      int

	// Per-connection inbound command rate limiting
	CommandRatePerSec float64
	CommandBurst      int
}

// Load loads config from environment (.env if present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	readBuf, _ := strconv.Atoi(getEnv("WS_READ_BUFFER_SIZE", "4096"))
	writeBuf, _ := strconv.Atoi(getEnv("WS_WRITE_BUFFER_SIZE", "4096"))
	maxMsg, _ := strconv.ParseInt(getEnv("WS_MAX_MESSAGE_SIZE", "65536"), 10, 64)
	maxPlayers, _ := strconv.Atoi(getEnv("ROOM_DEFAULT_MAX_PLAYERS", "4"))
	codeAttempts, _ := strconv.Atoi(getEnv("ROOM_CODE_ATTEMPTS", "10"))
	cmdRate, _ := strconv.ParseFloat(getEnv("WS_COMMAND_RATE", "10"), 64)
	cmdBurst, _ := strconv.Atoi(getEnv("WS_COMMAND_BURST", "20"))

	cfg := &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		AppHost:               getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort:              firstEnv("APP_PORT", "HTTP_PORT", "4000"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		WSReadBufferSize:      readBuf,
		WSWriteBufferSize:     writeBuf,
		WSMaxMessageSize:      maxMsg,
		RoomDefaultMaxPlayers: maxPlayers,
		RoomCodeAttempts:      codeAttempts,
		CommandRatePerSec:     cmdRate,
		CommandBurst:          cmdBurst,
	}
	cfg.DB.Host = getEnv("DB_HOST", "")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.Database = getEnv("DB_DATABASE", "room_service")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")
	return cfg, nil
}

// UseDatabase reports whether a PostgreSQL backend is configured.
func (c *Config) UseDatabase() bool { return c.DB.Host != "" }

// Validate checks required fields and production safety.
func (c *Config) Validate() error {
	if c.AppEnv == "production" && !c.UseDatabase() {
		return errors.New("config: in production DB_HOST is required")
	}
	if c.UseDatabase() {
		if c.DB.User == "" {
			return errors.New("config: DB_USER is required")
		}
		if c.DB.Database == "" {
			return errors.New("config: DB_DATABASE is required")
		}
		if c.AppEnv == "production" && c.DB.Password == "" {
			return errors.New("config: in production DB_PASSWORD is required")
		}
	}
	if c.RoomDefaultMaxPlayers < 2 {
		return errors.New("config: ROOM_DEFAULT_MAX_PLAYERS must be at least 2")
	}
	return nil
}

// DSN returns PostgreSQL connection string for GORM.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

// DatabaseURL returns postgres URL for golang-migrate.
func (c *Config) DatabaseURL() string {
	pass := url.QueryEscape(c.DB.Password)
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, pass, c.DB.Host, c.DB.Port, c.DB.Database, c.DB.SSLMode)
}

// Addr returns listen address for HTTP server.
func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	keys := keysAndDef[:len(keysAndDef)-1]
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
