package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/delfinacorr/hello-tiburona/internal/greeter"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TIBURONA_CONFIG", "TIBURONA_SOCKET", "TIBURONA_DB", "TIBURONA_NATS_URL",
		"TIBURONA_TTL_THRESHOLD", "TIBURONA_TTL_EXTEND_TO", "TIBURONA_TTL_MIN", "TIBURONA_TTL_MAX",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.TTL.Threshold.Duration != greeter.DefaultTTL || cfg.TTL.ExtendTo.Duration != greeter.DefaultTTL {
		t.Errorf("TTL = %+v, want one-day windows", cfg.TTL)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != Default().DBPath {
		t.Errorf("DBPath = %q, want default", cfg.DBPath)
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
socket = "/tmp/t.sock"
nats_url = "nats://127.0.0.1:4222"

[ttl]
threshold = "1h"
extend_to = "2h"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Socket != "/tmp/t.sock" {
		t.Errorf("Socket = %q", cfg.Socket)
	}
	if cfg.NATSURL != "nats://127.0.0.1:4222" {
		t.Errorf("NATSURL = %q", cfg.NATSURL)
	}
	if cfg.TTL.Threshold.Duration != time.Hour || cfg.TTL.ExtendTo.Duration != 2*time.Hour {
		t.Errorf("TTL = %+v", cfg.TTL)
	}
	if cfg.TTL.Min.Duration != greeter.DefaultTTL {
		t.Errorf("TTL.Min = %s, want default", cfg.TTL.Min)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`db_path = "/from/file"`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TIBURONA_DB", "/from/env")
	t.Setenv("TIBURONA_TTL_EXTEND_TO", "90m")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/from/env" {
		t.Errorf("DBPath = %q, want /from/env", cfg.DBPath)
	}
	if cfg.TTL.ExtendTo.Duration != 90*time.Minute {
		t.Errorf("ExtendTo = %s, want 90m", cfg.TTL.ExtendTo)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		env     map[string]string
		wantErr string
	}{
		{name: "bad toml", file: "socket = ", wantErr: "reading config"},
		{name: "bad duration in file", file: "[ttl]\nthreshold = \"soon\"", wantErr: "reading config"},
		{name: "bad duration in env", env: map[string]string{"TIBURONA_TTL_MIN": "x"}, wantErr: "TIBURONA_TTL_MIN"},
		{name: "negative threshold", env: map[string]string{"TIBURONA_TTL_THRESHOLD": "-1h"}, wantErr: "ttl.threshold"},
		{name: "threshold above max", file: "[ttl]\nthreshold = \"48h\"\nmax = \"24h\"", wantErr: "ttl.max"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := filepath.Join(t.TempDir(), "config.toml")
			if tt.file != "" {
				if err := os.WriteFile(path, []byte(tt.file), 0o600); err != nil {
					t.Fatal(err)
				}
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Load error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestWriteThenLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	want := Default()
	want.NATSURL = "nats://example:4222"
	want.TTL.ExtendTo = Duration{3 * time.Hour}
	if err := Write(path, want); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Errorf("Load = %+v, want %+v", got, want)
	}
}
