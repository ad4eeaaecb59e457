package config

import (
	"net"
	"os"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	MySQL    MySQLConfig
	SQLite   SQLiteConfig
	Redis    RedisConfig
	Engine   EngineConfig
}

type ServerConfig struct {
	Port string
	Host string
}

type DatabaseConfig struct {
	Driver string // mysql or sqlite
}

type MySQLConfig struct {
	Host     string
	User     string
	Password string
	Database string
}

// DSN formats the connection string for the MySQL driver.
func (c MySQLConfig) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = c.Host
	cfg.DBName = c.Database
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN()
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	PoolSize int
}

func (c RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

type EngineConfig struct {
	MaxRetries   int
	LockTTL      time.Duration
	CacheTTL     time.Duration
	Currency     string
	StreamMaxLen int64 // approximate cap per event stream
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8072"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "mysql"),
		},
		MySQL: MySQLConfig{
			Host:     getEnv("MYSQL_HOST", "localhost:3306"),
			User:     getEnv("MYSQL_USER", "loans"),
			Password: getEnv("MYSQL_PASSWORD", "loans123"),
			Database: getEnv("MYSQL_DATABASE", "loan_engine"),
		},
		SQLite: SQLiteConfig{
			Path: getEnv("SQLITE_PATH", "loan-engine.db"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			PoolSize: getEnvAsInt("REDIS_POOL_SIZE", 100),
		},
		Engine: EngineConfig{
			MaxRetries:   getEnvAsInt("ENGINE_MAX_RETRIES", 3),
			LockTTL:      getEnvAsDuration("ENGINE_LOCK_TTL", 5*time.Second),
			CacheTTL:     getEnvAsDuration("ENGINE_CACHE_TTL", 5*time.Minute),
			Currency:     getEnv("ENGINE_CURRENCY", "INR"),
			StreamMaxLen: int64(getEnvAsInt("ENGINE_STREAM_MAX_LEN", 100000)),
		},
	}
}

// DatabaseDSN returns the DSN for the configured driver.
func (c *Config) DatabaseDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.SQLite.Path
	}
	return c.MySQL.DSN()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
