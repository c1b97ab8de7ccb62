package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/infrastructure/server"
)

func main() {
	cfg := config.LoadOrDefault()

	port := flag.String("port", cfg.Server.Port, "Server port")
	bridgeAddr := flag.String("bridge", cfg.Bridge.Address, "Host bridge base URL")
	offline := flag.Bool("offline", cfg.Bridge.Offline, "Use the in-memory host instead of the bridge")
	seed := flag.String("seed", cfg.Bridge.Seed, "Settings file (json, yaml or toml) for the in-memory host")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development logging")
	flag.Parse()

	cfg.Server.Port = *port
	cfg.Bridge.Address = *bridgeAddr
	cfg.Bridge.Offline = *offline
	cfg.Bridge.Seed = *seed
	cfg.Logging.Development = *dev

	srv, err := server.NewServer(cfg, nil)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run(context.Background())
	}()

	select {
	case <-sigChan:
		log.Println("Shutting down gracefully...")
		if err := srv.Close(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		if err != nil {
			_ = srv.Close()
			log.Fatalf("Server error: %v", err)
		}
	}
}
