package config

import (
	"fmt"
	"strings"
	"sync"

	"shiftboard-api/core/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Server   ServerConfig
		Database DatabaseConfig
		Redis    RedisConfig
		JWT      JWTConfig
	}

	ServerConfig struct {
		Host string
		Port int
	}

	DatabaseConfig struct {
		Host     string
		Port     int
		User     string
		Password string
		DBName   string
		SSLMode  string
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
	}

	JWTConfig struct {
		Secret          string
		AccessTokenTTL  int // minutes
		RefreshTokenTTL int // minutes
	}
)

var (
	mu       sync.RWMutex
	instance *Config
)

// Init loads .env (if present) and environment variables prefixed with
// SHIFTBOARD_ into the config singleton.
func Init() error {
	if err := godotenv.Load(); err != nil {
		logger.Info("Config:Init", "reason", "no .env file, using environment only")
	}

	v := viper.New()
	v.SetEnvPrefix("SHIFTBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 7070)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "shiftboard")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.access_token_ttl", 60)
	v.SetDefault("jwt.refresh_token_ttl", 43200)

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("server.host"),
			Port: v.GetInt("server.port"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("database.host"),
			Port:     v.GetInt("database.port"),
			User:     v.GetString("database.user"),
			Password: v.GetString("database.password"),
			DBName:   v.GetString("database.dbname"),
			SSLMode:  v.GetString("database.sslmode"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:          v.GetString("jwt.secret"),
			AccessTokenTTL:  v.GetInt("jwt.access_token_ttl"),
			RefreshTokenTTL: v.GetInt("jwt.refresh_token_ttl"),
		},
	}

	if cfg.JWT.Secret == "" {
		return fmt.Errorf("SHIFTBOARD_JWT_SECRET is required")
	}

	mu.Lock()
	instance = cfg
	mu.Unlock()
	return nil
}

// Get returns the config singleton. Panics when Init was not called;
// use GetSafe where a missing config is tolerable.
func Get() *Config {
	cfg, ok := GetSafe()
	if !ok {
		panic("config not initialized")
	}
	return cfg
}

func GetSafe() (*Config, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return instance, instance != nil
}
