package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/bridge"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/bridge/memory"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/bridge/rpc"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/infrastructure/config"
)

// NewHost picks the bridge transport. Offline mode uses the in-memory
// host, seeded from cfg.Seed when set.
func NewHost(cfg config.BridgeConfig, logger *zap.Logger) (bridge.Host, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if !cfg.Offline {
		logger.Info("Using host bridge", zap.String("addr", cfg.Address))
		return rpc.New(rpc.Options{
			BaseURL: cfg.Address,
			Timeout: cfg.Timeout,
			Logger:  logger.Named("rpc"),
		}), nil
	}

	if cfg.Seed == "" {
		logger.Info("Using in-memory host")
		return memory.New(), nil
	}

	host, err := memory.NewFromFile(cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to seed in-memory host: %w", err)
	}
	logger.Info("Using in-memory host", zap.String("seed", cfg.Seed))
	return host, nil
}
