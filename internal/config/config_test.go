package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != 8765 {
		t.Errorf("expected default port 8765, got %d", cfg.Server.Port)
	}
	if cfg.Parser.Engine != "docjson" {
		t.Errorf("expected default engine docjson, got %s", cfg.Parser.Engine)
	}
	if cfg.Parser.BatchSize != 10 {
		t.Errorf("expected default batch size 10, got %d", cfg.Parser.BatchSize)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Log.Level)
	}
}

func TestNewManagerMissingFileUsesDefaults(t *testing.T) {
	cm, err := NewManager("")
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	cfg := cm.Get()
	if cfg.Parser.Engine != "docjson" {
		t.Errorf("expected default engine, got %s", cfg.Parser.Engine)
	}
}

func TestNewManagerLoadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `server:
  host: 0.0.0.0
  port: 9000
parser:
  engine: text
  batch_size: 3
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cm, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	cfg := cm.Get()
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected host 0.0.0.0, got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Parser.Engine != "text" {
		t.Errorf("expected engine text, got %s", cfg.Parser.Engine)
	}
	if cfg.Parser.BatchSize != 3 {
		t.Errorf("expected batch size 3, got %d", cfg.Parser.BatchSize)
	}
	// Untouched sections keep defaults.
	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level, got %s", cfg.Log.Level)
	}
}

func TestNewManagerMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not: a map"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := NewManager(path); err == nil {
		t.Error("expected error for malformed config file")
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("FOLIO_PARSER_BATCH_SIZE", "25")

	cm, err := NewManager("")
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if got := cm.Get().Parser.BatchSize; got != 25 {
		t.Errorf("expected batch size 25 from env, got %d", got)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}

	cm, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager failed on written default: %v", err)
	}
	if cm.Get().Server.Port != DefaultConfig().Server.Port {
		t.Error("written default config does not round-trip")
	}
}
