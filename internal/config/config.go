package config

import (
	"os"
	"strconv"
	"time"

	"societyhub-data/internal/database"
)

// Config societyhub-data（HTTP API）配置
type Config struct {
	HTTP struct {
		Addr string
	}
	DBEnabled bool
	Database  database.Config
	Redis     struct {
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}
	Auth AuthConfig `yaml:"auth"`
	MQTT MQTTConfig `yaml:"mqtt"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	// Provider 认证实现："local"（内置，凭证存内存 + Redis 会话）或 "http"（托管认证服务）
	Provider string `yaml:"provider"`
	// BaseURL 托管认证服务地址（provider=http 时生效）
	BaseURL string `yaml:"base_url"`
	// APIKey 托管认证服务 API Key（provider=http 时生效）
	APIKey string `yaml:"api_key"`
	// Watchdog 初始会话探测的看门狗超时：超过后强制 loading=false 并记录 Timeout 错误
	Watchdog time.Duration `yaml:"watchdog"`
	// SessionTTL 本地会话令牌有效期
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// MQTTConfig MQTT 配置（用于桥接外部会话变更事件，默认禁用）
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`   // 是否启用 MQTT 会话事件桥接（默认 false）
	Broker   string `yaml:"broker"`    // MQTT Broker 地址（如 "tcp://localhost:1883"）
	ClientID string `yaml:"client_id"` // 客户端 ID
	Username string `yaml:"username"`  // 用户名（可选）
	Password string `yaml:"password"`  // 密码（可选）
	Topic    string `yaml:"topic"`     // 订阅的主题（如 "societyhub/session-events"）
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	// Default to true for local dev: if DB is unavailable, societyhub-data will fall back to
	// the in-memory record store. This avoids "empty admin pages" when starting with plain `go run`.
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "societyhub")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	// 认证配置
	cfg.Auth.Provider = getEnv("AUTH_PROVIDER", "local")
	cfg.Auth.BaseURL = getEnv("AUTH_BASE_URL", "")
	cfg.Auth.APIKey = getEnv("AUTH_API_KEY", "")
	cfg.Auth.Watchdog = parseDuration(getEnv("AUTH_WATCHDOG", "5s"), 5*time.Second)
	cfg.Auth.SessionTTL = parseDuration(getEnv("AUTH_SESSION_TTL", "24h"), 24*time.Hour)

	// MQTT 配置（桥接外部会话变更事件，默认禁用）
	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "societyhub-data-session")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "societyhub/session-events")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
