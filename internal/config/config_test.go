package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SQLITE_DB_PATH", "")
	t.Setenv("DATA_BACKEND", "")

	cfg := Load()
	if cfg.Port != "8081" {
		t.Errorf("Port = %q, want 8081", cfg.Port)
	}
	if cfg.SQLiteDBPath != "./data/budgetboard.db" {
		t.Errorf("SQLiteDBPath = %q", cfg.SQLiteDBPath)
	}
	if cfg.DataBackend != "sqlite" {
		t.Errorf("DataBackend = %q, want sqlite", cfg.DataBackend)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SQLITE_DB_PATH", "/tmp/bb.db")
	t.Setenv("DATA_BACKEND", "memory")

	cfg := Load()
	if cfg.Port != "9090" || cfg.SQLiteDBPath != "/tmp/bb.db" || cfg.DataBackend != "memory" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "valid memory backend",
			cfg:  Config{Port: "8081", DataBackend: "memory"},
		},
		{
			name: "valid sqlite backend",
			cfg:  Config{Port: "8081", DataBackend: "sqlite", SQLiteDBPath: "bb.db"},
		},
		{
			name:    "non-numeric port",
			cfg:     Config{Port: "http", DataBackend: "memory"},
			wantErr: "invalid port",
		},
		{
			name:    "port out of range",
			cfg:     Config{Port: "70000", DataBackend: "memory"},
			wantErr: "invalid port",
		},
		{
			name:    "unknown backend",
			cfg:     Config{Port: "8081", DataBackend: "sheets"},
			wantErr: "invalid data backend",
		},
		{
			name:    "sqlite without path",
			cfg:     Config{Port: "8081", DataBackend: "sqlite"},
			wantErr: "SQLite database path cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Config{Port: "nope", DataBackend: "bogus"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "invalid port") || !strings.Contains(msg, "invalid data backend") {
		t.Fatalf("expected both problems reported, got: %s", msg)
	}
}
