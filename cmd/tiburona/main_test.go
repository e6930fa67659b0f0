package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/delfinacorr/hello-tiburona/internal/greeter"
	"github.com/delfinacorr/hello-tiburona/internal/logger"
	"github.com/delfinacorr/hello-tiburona/internal/rpc"
	"github.com/delfinacorr/hello-tiburona/internal/store"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// startDaemon serves a fresh contract and returns CLI flags pointing at it.
func startDaemon(t *testing.T) []string {
	t.Helper()
	dir, err := os.MkdirTemp("", "tibcli")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	s, err := store.Open(filepath.Join(dir, "state.bbolt"), store.Options{MinTTL: greeter.DefaultTTL})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	sock := filepath.Join(dir, "d.sock")
	l, err := net.Listen("unix", sock)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go rpc.Serve(ctx, l, greeter.New(s, greeter.DefaultOptions()))

	return []string{"--socket", sock, "--config", filepath.Join(dir, "none.toml")}
}

func run(t *testing.T, flags []string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(append([]string{}, args...), flags...))
	err := cmd.Execute()
	return strings.TrimSpace(out.String()), err
}

func mustRun(t *testing.T, flags []string, args ...string) string {
	t.Helper()
	out, err := run(t, flags, args...)
	if err != nil {
		t.Fatalf("tiburona %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestCLIScenario(t *testing.T) {
	flags := startDaemon(t)

	mustRun(t, flags, "init", "GADMIN")
	if got := mustRun(t, flags, "hello", "Tiburón", "--as", "GUSER"); got != "Hola" {
		t.Errorf("hello = %q, want Hola", got)
	}
	mustRun(t, flags, "hello", "Tiburón", "--as", "GUSER")
	if got := mustRun(t, flags, "counter"); got != "2" {
		t.Errorf("counter = %q, want 2", got)
	}
	if got := mustRun(t, flags, "last-greeting", "GUSER"); got != "Tiburón" {
		t.Errorf("last-greeting = %q", got)
	}
	mustRun(t, flags, "reset", "--as", "GADMIN")
	if got := mustRun(t, flags, "counter"); got != "0" {
		t.Errorf("counter after reset = %q", got)
	}
	if got := mustRun(t, flags, "user-counter", "GUSER"); got != "2" {
		t.Errorf("user-counter = %q, want 2", got)
	}
	mustRun(t, flags, "set-limit", "4", "--as", "GADMIN")
	if _, err := run(t, flags, "hello", "holas", "--as", "GUSER"); !errors.Is(err, greeter.ErrNameTooLong) {
		t.Errorf("hello over limit = %v, want ErrNameTooLong", err)
	}
	mustRun(t, flags, "transfer-admin", "GNEW", "--as", "GADMIN")
	if got := mustRun(t, flags, "admin"); got != "GNEW" {
		t.Errorf("admin = %q, want GNEW", got)
	}
}

func TestCLIUnauthorized(t *testing.T) {
	flags := startDaemon(t)
	mustRun(t, flags, "init", "GADMIN")
	if _, err := run(t, flags, "reset", "--as", "GUSER"); !errors.Is(err, greeter.ErrUnauthorized) {
		t.Fatalf("reset = %v, want ErrUnauthorized", err)
	}
}

func TestCLIJSONOutput(t *testing.T) {
	flags := startDaemon(t)
	out := mustRun(t, flags, "last-greeting", "GNOBODY", "--json")

	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if got["found"] != false || got["identity"] != "GNOBODY" {
		t.Errorf("json = %v", got)
	}
}

func TestCLIRequiresCallerFlag(t *testing.T) {
	flags := startDaemon(t)
	if _, err := run(t, flags, "hello", "hola"); err == nil {
		t.Fatal("expected error without --as")
	}
}

func TestCLIInvalidLimit(t *testing.T) {
	flags := startDaemon(t)
	if _, err := run(t, flags, "set-limit", "many", "--as", "GADMIN"); err == nil || !strings.Contains(err.Error(), "invalid limit") {
		t.Fatalf("set-limit many = %v", err)
	}
}

func TestCLINewIdentityNeedsNoDaemon(t *testing.T) {
	out, err := run(t, nil, "new-identity")
	if err != nil {
		t.Fatalf("new-identity: %v", err)
	}
	if !strings.HasPrefix(out, "G") {
		t.Errorf("identity = %q", out)
	}
}

func TestCLIWatchWithoutNATS(t *testing.T) {
	flags := startDaemon(t)
	t.Setenv("TIBURONA_NATS_URL", "")
	if _, err := run(t, flags, "watch"); err == nil || !strings.Contains(err.Error(), "NATS") {
		t.Fatalf("watch = %v, want missing NATS URL error", err)
	}
}

func TestCLIWriteConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if _, err := run(t, nil, "write-config", "--config", path); err != nil {
		t.Fatalf("write-config: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if _, err := run(t, nil, "write-config", "--config", path); err == nil {
		t.Fatal("expected error when file exists")
	}
	if _, err := run(t, nil, "write-config", "--config", path, "--force"); err != nil {
		t.Fatalf("write-config --force: %v", err)
	}
}

func TestCLIRestore(t *testing.T) {
	flags := startDaemon(t)
	mustRun(t, flags, "init", "GADMIN")
	if got := mustRun(t, flags, "restore", "GUSER"); got != "nothing archived" {
		t.Errorf("restore = %q, want nothing archived", got)
	}
	out := mustRun(t, flags, "restore", "--json")
	var v map[string]any
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if v["restored"] != false {
		t.Errorf("restored = %v, want false", v["restored"])
	}
}
