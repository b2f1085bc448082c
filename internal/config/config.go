package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port             string
	DatabaseDSN      string
	JWTSecret        string
	Env              string
	ClientOrigin     string
	TokenTTLDays     int
	RoomCleanupDelay time.Duration
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func Load() Config {
	port := getenv("APP_PORT", "3002")
	dsn := getenv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=watchparty port=5432 sslmode=disable TimeZone=UTC")
	secret := getenv("JWT_SECRET", "dev-secret-change-me")
	env := getenv("APP_ENV", "dev")
	origin := getenv("CLIENT_ORIGIN", "http://localhost:3000")
	ttlStr := getenv("TOKEN_TTL_DAYS", "7")
	cleanupStr := getenv("ROOM_CLEANUP_DELAY_SECONDS", "5")
	ttl, _ := strconv.Atoi(ttlStr)
	if ttl <= 0 {
		ttl = 7
	}
	cleanup, _ := strconv.Atoi(cleanupStr)
	if cleanup <= 0 {
		cleanup = 5
	}
	return Config{
		Port:             port,
		DatabaseDSN:      dsn,
		JWTSecret:        secret,
		Env:              env,
		ClientOrigin:     origin,
		TokenTTLDays:     ttl,
		RoomCleanupDelay: time.Duration(cleanup) * time.Second,
	}
}

// Validate 校验配置的基本有效性，生产环境禁止使用默认密钥。
func Validate(cfg Config) error {
	if cfg.Port == "" {
		return errors.New("config: port must not be empty")
	}
	if cfg.DatabaseDSN == "" {
		return errors.New("config: database dsn must not be empty")
	}
	if cfg.Env != "dev" && cfg.JWTSecret == "dev-secret-change-me" {
		return errors.New("config: default jwt secret is not allowed outside dev")
	}
	return nil
}
