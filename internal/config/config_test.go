package config

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.ServerPort != 8080 {
		t.Fatalf("port mismatch: got %d want 8080", cfg.ServerPort)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("ttl mismatch: got %v want 24h", cfg.TokenTTL)
	}
	if cfg.BcryptCost != bcrypt.DefaultCost {
		t.Fatalf("cost mismatch: got %d want %d", cfg.BcryptCost, bcrypt.DefaultCost)
	}
	if cfg.DatabasePath == "" || cfg.CORSOrigin == "" {
		t.Fatal("expected non-empty defaults for database path and CORS origin")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "9001")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("BCRYPT_COST", "6")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.ServerPort != 9001 || cfg.TokenTTL != 30*time.Minute || cfg.BcryptCost != 6 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoad_SecureCookies(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	t.Setenv("APP_ENV", "development")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.SecureCookies {
		t.Fatal("secure cookies must be off outside production")
	}

	t.Setenv("APP_ENV", "production")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if !cfg.SecureCookies {
		t.Fatal("secure cookies must be on in production")
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when JWT_SECRET is unset")
	}
}

func TestLoad_BadValues(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	t.Setenv("PORT", "not-a-port")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unparseable PORT")
	}
	t.Setenv("PORT", "8080")

	t.Setenv("TOKEN_TTL", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unparseable TOKEN_TTL")
	}
}
