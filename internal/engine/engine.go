package engine

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/bridge"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/domain/mutation"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/domain/settings"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/domain/tray"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/query"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/shared/id"
)

// Engine owns the query cache, the mutation pipeline and the tray sync
// for one host bridge.
type Engine struct {
	cfg    *config.Config
	host   bridge.Host
	client *bridge.Client

	cache        *query.Cache
	browsers     query.Query[[]settings.Browser]
	settings     query.Query[*settings.AppSettings]
	settingsPath query.Query[string]

	pipeline *mutation.Pipeline
	shell    tray.Shell
	tray     *tray.Sync

	logger      *zap.Logger
	metrics     *monitoring.Metrics
	tracer      *tracing.Tracer
	ownedTracer bool
	newID       func() string

	mu      sync.Mutex
	started bool
	closed  bool
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics sets the metrics sink
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(e *Engine) { e.metrics = metrics }
}

// WithTracer shares a tracer; the engine then leaves closing it to the caller
func WithTracer(tracer *tracing.Tracer) Option {
	return func(e *Engine) { e.tracer = tracer }
}

// WithShell replaces the headless tray shell
func WithShell(shell tray.Shell) Option {
	return func(e *Engine) { e.shell = shell }
}

// WithIDs overrides the id generator for new sites and proxies
func WithIDs(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// New wires an engine around host. Nothing talks to the host until Start.
func New(cfg *config.Config, host bridge.Host, opts ...Option) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}

	e := &Engine{
		cfg:    cfg,
		host:   host,
		logger: zap.NewNop(),
		newID:  id.NewEntityID,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = monitoring.NewMetrics()
	}
	if e.tracer == nil {
		e.tracer = tracing.New("engine", e.logger)
		e.ownedTracer = true
	}
	if e.shell == nil {
		e.shell = tray.NewHeadlessShell()
	}

	e.client = bridge.NewClient(host, e.logger.Named("bridge"), e.metrics)
	e.cache = query.New(
		query.WithLogger(e.logger.Named("query")),
		query.WithMetrics(e.metrics),
	)

	cacheOpts := cacheOptions(cfg.Cache)
	e.browsers = query.Define(e.cache, query.KeyBrowsers, cacheOpts, func(ctx context.Context) ([]settings.Browser, error) {
		return e.client.DetectBrowsers(ctx), nil
	})
	e.settings = query.Define(e.cache, query.KeySettings, cacheOpts, e.client.LoadSettings)
	e.settingsPath = query.Define(e.cache, query.KeySettingsPath, query.ForeverOptions(), func(ctx context.Context) (string, error) {
		return e.client.SettingsPath(ctx), nil
	})

	e.pipeline = mutation.New(e.client, e.settings,
		mutation.WithLogger(e.logger.Named("mutation")),
		mutation.WithMetrics(e.metrics),
		mutation.WithTracer(e.tracer),
		mutation.WithBrowsers(e.browsers),
		mutation.WithIDs(e.newID),
	)
	e.tray = tray.NewSync(e.shell, e.client, e.settings,
		tray.WithLogger(e.logger.Named("tray")),
		tray.WithMetrics(e.metrics),
	)
	return e
}

func cacheOptions(cfg config.CacheConfig) query.Options {
	opts := query.DefaultOptions()
	if cfg.StaleTime != 0 {
		opts.StaleTime = cfg.StaleTime
	}
	if cfg.GCTime != 0 {
		opts.GCTime = cfg.GCTime
	}
	opts.Retry = cfg.Retry
	if cfg.RetryDelay > 0 {
		opts.RetryDelay = cfg.RetryDelay
	}
	return opts
}

// Start warms the settings cache, starts the janitor and creates the tray.
// An unreachable host is not fatal; the first read retries it.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started || e.closed {
		e.mu.Unlock()
		return nil
	}
	e.started = true
	e.mu.Unlock()

	e.logger.Info("Starting engine", zap.String("session", id.Session()))

	if e.cfg.Cache.SweepInterval > 0 {
		e.cache.StartJanitor(e.cfg.Cache.SweepInterval)
	}

	if _, err := e.settings.Get(ctx); err != nil {
		e.logger.Warn("Failed to load settings", zap.Error(err))
	}

	if e.cfg.Tray.Enabled {
		if err := e.tray.Start(ctx); err != nil {
			return fmt.Errorf("failed to start tray: %w", err)
		}
	}
	return nil
}

// Close removes the tray and stops background work
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	var firstErr error
	if err := e.tray.Close(ctx); err != nil {
		e.logger.Error("Failed to close tray", zap.Error(err))
		firstErr = err
	}
	e.cache.Close()
	if e.ownedTracer {
		e.tracer.Close()
	}
	e.logger.Info("Engine closed")
	return firstErr
}

// Client returns the policy-applying bridge client
func (e *Engine) Client() *bridge.Client { return e.client }

// Cache returns the query cache
func (e *Engine) Cache() *query.Cache { return e.cache }

// Settings returns the settings query
func (e *Engine) Settings() query.Query[*settings.AppSettings] { return e.settings }

// Browsers returns the detected browsers query
func (e *Engine) Browsers() query.Query[[]settings.Browser] { return e.browsers }

// Pipeline returns the mutation pipeline
func (e *Engine) Pipeline() *mutation.Pipeline { return e.pipeline }

// Tray returns the tray sync
func (e *Engine) Tray() *tray.Sync { return e.tray }

// Metrics returns the metrics sink
func (e *Engine) Metrics() *monitoring.Metrics { return e.metrics }

// Tracer returns the tracer
func (e *Engine) Tracer() *tracing.Tracer { return e.tracer }
