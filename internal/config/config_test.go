package config

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is empty")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/medbill")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("DB_MAX_CONNS", "")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("MEDICINE_BUNDLE_PATH", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.ServerPort)
	}
	if cfg.DBMaxConns != 10 {
		t.Errorf("expected 10 max conns, got %d", cfg.DBMaxConns)
	}
	if cfg.MedicineBundlePath != "resources/medicines-bundle.db" {
		t.Errorf("unexpected bundle path %s", cfg.MedicineBundlePath)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("unexpected origins %v", cfg.AllowedOrigins)
	}
}

func TestLoad_RejectsBadMaxConns(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/medbill")
	t.Setenv("DB_MAX_CONNS", "zero")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-numeric DB_MAX_CONNS")
	}
}

func TestNewLogger(t *testing.T) {
	l := NewLogger("debug", "text")
	if l.GetLevel() != logrus.DebugLevel {
		t.Errorf("expected debug level, got %s", l.GetLevel())
	}
	if _, ok := l.Formatter.(*logrus.TextFormatter); !ok {
		t.Errorf("expected text formatter, got %T", l.Formatter)
	}

	l = NewLogger("nonsense", "")
	if l.GetLevel() != logrus.InfoLevel {
		t.Errorf("expected info fallback, got %s", l.GetLevel())
	}
	if _, ok := l.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("expected json formatter, got %T", l.Formatter)
	}
}
