package config

import (
	"fmt"
	"os"
	"strconv"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// Config healthtwin-data（HTTP API）配置
type Config struct {
	HTTP struct {
		Addr string
	}
	DBEnabled bool
	Database  DatabaseConfig
	Redis     struct {
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}
	// Model 外部疾病预测模型服务配置（可选；未配置时使用本地规则分类器）
	Model struct {
		HTTPAddress string
		TimeoutSec  int
	}
	Dashboard struct {
		CacheTTLSec int // dashboard 汇总缓存 TTL（秒），0 表示不缓存
	}
	Auth struct {
		TokenTTLMin int // 登录 token 有效期（分钟）
	}
	SeedWorkers bool
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	// Default to true for local dev: if DB is unavailable, healthtwin-data
	// falls back to in-memory repositories so dashboards are not empty.
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "healthtwin")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	// 外部模型服务（默认不启用，使用本地规则表）
	cfg.Model.HTTPAddress = getEnv("MODEL_HTTP_ADDRESS", "")
	cfg.Model.TimeoutSec = parseInt(getEnv("MODEL_TIMEOUT_SEC", "10"), 10)

	cfg.Dashboard.CacheTTLSec = parseInt(getEnv("DASHBOARD_CACHE_TTL_SEC", "30"), 30)
	cfg.Auth.TokenTTLMin = parseInt(getEnv("AUTH_TOKEN_TTL_MIN", "480"), 480)

	cfg.SeedWorkers = getEnv("SEED_WORKERS", "true") == "true"

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
