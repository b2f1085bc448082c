package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	cfg := Load()
	if cfg.Port != "3002" {
		t.Errorf("Port = %q, want %q", cfg.Port, "3002")
	}
	if cfg.Env != "dev" {
		t.Errorf("Env = %q, want %q", cfg.Env, "dev")
	}
	if cfg.TokenTTLDays != 7 {
		t.Errorf("TokenTTLDays = %d, want 7", cfg.TokenTTLDays)
	}
	if cfg.RoomCleanupDelay != 5*time.Second {
		t.Errorf("RoomCleanupDelay = %v, want 5s", cfg.RoomCleanupDelay)
	}
	if cfg.ClientOrigin != "http://localhost:3000" {
		t.Errorf("ClientOrigin = %q, want localhost origin", cfg.ClientOrigin)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	os.Clearenv()
	os.Setenv("APP_PORT", "9000")
	os.Setenv("DATABASE_DSN", "host=db user=u dbname=d")
	os.Setenv("JWT_SECRET", "super-secret")
	os.Setenv("APP_ENV", "prod")
	os.Setenv("CLIENT_ORIGIN", "https://party.example.com")
	os.Setenv("TOKEN_TTL_DAYS", "30")
	os.Setenv("ROOM_CLEANUP_DELAY_SECONDS", "10")
	defer os.Clearenv()

	cfg := Load()
	if cfg.Port != "9000" {
		t.Errorf("Port = %q, want %q", cfg.Port, "9000")
	}
	if cfg.DatabaseDSN != "host=db user=u dbname=d" {
		t.Errorf("DatabaseDSN = %q", cfg.DatabaseDSN)
	}
	if cfg.JWTSecret != "super-secret" {
		t.Errorf("JWTSecret = %q", cfg.JWTSecret)
	}
	if cfg.Env != "prod" {
		t.Errorf("Env = %q, want %q", cfg.Env, "prod")
	}
	if cfg.ClientOrigin != "https://party.example.com" {
		t.Errorf("ClientOrigin = %q", cfg.ClientOrigin)
	}
	if cfg.TokenTTLDays != 30 {
		t.Errorf("TokenTTLDays = %d, want 30", cfg.TokenTTLDays)
	}
	if cfg.RoomCleanupDelay != 10*time.Second {
		t.Errorf("RoomCleanupDelay = %v, want 10s", cfg.RoomCleanupDelay)
	}
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	os.Clearenv()
	os.Setenv("TOKEN_TTL_DAYS", "not-a-number")
	os.Setenv("ROOM_CLEANUP_DELAY_SECONDS", "-3")
	defer os.Clearenv()

	cfg := Load()
	if cfg.TokenTTLDays != 7 {
		t.Errorf("TokenTTLDays = %d, want fallback 7", cfg.TokenTTLDays)
	}
	if cfg.RoomCleanupDelay != 5*time.Second {
		t.Errorf("RoomCleanupDelay = %v, want fallback 5s", cfg.RoomCleanupDelay)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "valid dev config",
			cfg:     Config{Port: "3002", DatabaseDSN: "host=x", JWTSecret: "dev-secret-change-me", Env: "dev"},
			wantErr: false,
		},
		{
			name:    "empty port",
			cfg:     Config{Port: "", DatabaseDSN: "host=x", JWTSecret: "s", Env: "dev"},
			wantErr: true,
		},
		{
			name:    "empty dsn",
			cfg:     Config{Port: "3002", DatabaseDSN: "", JWTSecret: "s", Env: "dev"},
			wantErr: true,
		},
		{
			name:    "default secret in prod",
			cfg:     Config{Port: "3002", DatabaseDSN: "host=x", JWTSecret: "dev-secret-change-me", Env: "prod"},
			wantErr: true,
		},
		{
			name:    "custom secret in prod",
			cfg:     Config{Port: "3002", DatabaseDSN: "host=x", JWTSecret: "rotated", Env: "prod"},
			wantErr: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
