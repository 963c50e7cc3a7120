// Command descriptors-server serves the descriptor tools as JSON-RPC 2.0
// over stdin and stdout.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/JamesPrial/holon-descriptors/internal/admin"
	"github.com/JamesPrial/holon-descriptors/internal/descriptors"
	"github.com/JamesPrial/holon-descriptors/internal/store"
	"github.com/JamesPrial/holon-descriptors/internal/transport"
	"github.com/JamesPrial/holon-descriptors/pkg/config"
	"github.com/JamesPrial/holon-descriptors/pkg/logging"
)

func main() {
	var configPath, envFile, adminAddr string
	flag.StringVar(&configPath, "config", "", "Path to configuration file (defaults apply when empty)")
	flag.StringVar(&envFile, "env", ".env", "Path to a .env file with HOLON_* overrides")
	flag.StringVar(&adminAddr, "admin-addr", "", "Address for the admin HTTP endpoints, disabled when empty")
	flag.Parse()

	if err := config.LoadDotEnv(envFile); err != nil {
		log.Fatalf("Failed to load %s: %v", envFile, err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.LogLevel(cfg.LogLevel)
	if err := logging.Initialize(logCfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Shutdown()

	service, backend, err := newService(cfg)
	if err != nil {
		log.Fatalf("Failed to create storage backend: %v", err)
	}
	defer backend.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if adminAddr != "" {
		go func() {
			if err := admin.NewAdminServer(service.Statistics).StartServer(ctx, adminAddr); err != nil {
				log.Printf("Admin server error: %v", err)
			}
		}()
	}

	server := NewServer(service)
	tr := transport.NewStdioTransport(os.Stdin, os.Stdout)
	if err := tr.Start(ctx, server.HandleRequest); err != nil && err != context.Canceled {
		log.Printf("Server error: %v", err)
	}
}

// newService wires the store, its integrity validator and the service from
// validated settings
func newService(cfg *config.Settings) (*descriptors.Service, store.Backend, error) {
	validation := cfg.ValidationOptions()

	backend, err := store.NewBackend(cfg, store.WithValidator(descriptors.Integrity(validation...)))
	if err != nil {
		return nil, nil, err
	}

	service := descriptors.NewService(backend,
		descriptors.WithValidationOptions(validation...),
		descriptors.WithReadConcurrency(cfg.Service.ReadConcurrency),
	)
	return service, backend, nil
}
