package main

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/delfinacorr/hello-tiburona/internal/config"
	"github.com/delfinacorr/hello-tiburona/internal/logger"
	"github.com/delfinacorr/hello-tiburona/internal/rpc"
	"github.com/delfinacorr/hello-tiburona/internal/tools"
)

const daemonBinary = "tiburonad"

func main() {
	if err := logger.InitFromEnv("tiburona-mcp"); err != nil {
		panic(err)
	}
	defer logger.Close()

	logger.Infof("Starting tiburona MCP server")

	cfg, err := config.Load("")
	if err != nil {
		logger.Errorf("loading config: %v", err)
		panic(err)
	}

	// Connect to the daemon; start it if needed, then connect.
	logger.Infof("Attempting to connect to daemon at %s", cfg.Socket)
	client, err := connectDaemon(cfg.Socket)
	if err != nil {
		logger.Warnf("Failed to connect to daemon: %v, attempting to start it", err)
		if startErr := startDaemon(); startErr != nil {
			logger.Errorf("Failed to start daemon: %v", startErr)
		} else {
			logger.Infof("Daemon started")
		}
		// wait for socket to appear
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			if c2, err2 := connectDaemon(cfg.Socket); err2 == nil {
				client = c2
				err = nil
				break
			}
			time.Sleep(200 * time.Millisecond)
		}
		if client == nil {
			logger.Errorf("Failed to connect to daemon after startup attempt: %v", err)
			panic(err)
		}
	}
	logger.Infof("Connected to daemon")

	s := server.NewMCPServer(
		"Tiburona",
		"0.1.0",
		server.WithRecovery(),
		server.WithToolCapabilities(false),
	)
	tools.Register(s, client)
	logger.Infof("Registered contract tools")

	logger.Infof("Starting MCP server on stdio")
	if err := server.ServeStdio(s); err != nil {
		logger.Errorf("server error: %v", err)
	}
}

func connectDaemon(sock string) (*rpc.Client, error) {
	c := rpc.NewClient(sock)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func startDaemon() error {
	// 1) Try the daemon binary next to this executable
	if exePath, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(exePath), daemonBinary)
		if _, statErr := os.Stat(sibling); statErr == nil {
			return spawn(sibling)
		}
	}

	// 2) Try PATH
	if path, err := exec.LookPath(daemonBinary); err == nil {
		return spawn(path)
	}

	// 3) Try the working directory (best-effort)
	if _, err := os.Stat("./" + daemonBinary); err == nil {
		return spawn("./" + daemonBinary)
	}

	return exec.ErrNotFound
}

func spawn(path string) error {
	cmd := exec.Command(path)
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Env = os.Environ()
	return cmd.Start()
}
