package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/delfinacorr/hello-tiburona/internal/clock"
	"github.com/delfinacorr/hello-tiburona/internal/config"
	"github.com/delfinacorr/hello-tiburona/internal/events"
	"github.com/delfinacorr/hello-tiburona/internal/greeter"
	"github.com/delfinacorr/hello-tiburona/internal/logger"
	"github.com/delfinacorr/hello-tiburona/internal/rpc"
	"github.com/delfinacorr/hello-tiburona/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config.toml")
	flag.Parse()

	if err := logger.InitFromEnv("tiburonad"); err != nil {
		fmt.Fprintln(os.Stderr, "tiburonad:", err)
		os.Exit(1)
	}
	defer logger.Close()

	if err := run(*configPath); err != nil {
		logger.Errorf("%v", err)
		fmt.Fprintln(os.Stderr, "tiburonad:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return err
	}
	st, err := store.Open(cfg.DBPath, store.Options{
		Clock:  clock.Real{},
		MinTTL: cfg.TTL.Min.Duration,
		MaxTTL: cfg.TTL.Max.Duration,
	})
	if err != nil {
		return fmt.Errorf("opening %s: %w", cfg.DBPath, err)
	}
	defer st.Close()
	logger.Infof("opened state at %s", cfg.DBPath)

	var pub events.Publisher = &events.NoopPublisher{}
	if cfg.NATSURL != "" {
		np, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			return err
		}
		pub = np
		logger.Infof("publishing events to %s", cfg.NATSURL)
	}
	defer pub.Close()

	contract := greeter.New(st, greeter.Options{
		TTLThreshold: cfg.TTL.Threshold.Duration,
		TTLExtendTo:  cfg.TTL.ExtendTo.Duration,
		Publisher:    pub,
	})

	// Ensure socket dir exists and remove stale socket
	_ = os.MkdirAll(filepath.Dir(cfg.Socket), 0o755)
	_ = os.Remove(cfg.Socket)

	l, err := net.Listen("unix", cfg.Socket)
	if err != nil {
		return err
	}
	_ = os.Chmod(cfg.Socket, 0o600)
	logger.Infof("listening on %s", cfg.Socket)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = rpc.Serve(ctx, l, contract)
	_ = os.Remove(cfg.Socket)
	logger.Infof("shut down")
	return err
}
