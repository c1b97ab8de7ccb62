package tray

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/domain/settings"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/query"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/shared/utils"
)

var (
	// ErrNotReady is returned when the icon does not exist
	ErrNotReady = errors.New("tray is not ready")
	// ErrUnknownItem is returned for ids missing from the installed menu
	ErrUnknownItem = errors.New("unknown menu item")
)

// State is the lifecycle of the tray icon
type State int

const (
	StateAbsent State = iota
	StateCreating
	StateReady
)

func (s State) String() string {
	switch s {
	case StateCreating:
		return "creating"
	case StateReady:
		return "ready"
	default:
		return "absent"
	}
}

// MarshalText renders the state name in JSON
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Commands are the bridge calls menu items trigger
type Commands interface {
	LaunchSite(ctx context.Context, siteID string) error
	LaunchProxy(ctx context.Context, proxyID string) error
	Quit(ctx context.Context) error
	ToggleWindow(ctx context.Context)
}

// Builder turns a document into a menu
type Builder func(ctx context.Context, doc *settings.AppSettings) Menu

// Status is a point-in-time view of the sync
type Status struct {
	State     State  `json:"state"`
	Requested uint64 `json:"requested"`
	Installed uint64 `json:"installed"`
	Menu      Menu   `json:"menu"`
}

type request struct {
	revision uint64
	doc      *settings.AppSettings
}

// Sync keeps the tray menu in step with the settings document.
// Rebuild requests are numbered; one worker builds the newest pending
// request and drops any build that a newer request overtook.
type Sync struct {
	mu          sync.Mutex
	state       State
	requested   uint64
	installed   uint64
	fingerprint string
	pending     *request
	menu        Menu
	wake        chan struct{}
	done        chan struct{}
	cancel      context.CancelFunc
	unsubscribe func()

	shell Shell
	cmds  Commands
	docs  query.Query[*settings.AppSettings]
	build Builder

	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// Option configures a Sync
type Option func(*Sync)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Sync) { s.logger = logger }
}

// WithMetrics enables rebuild metrics
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(s *Sync) { s.metrics = metrics }
}

// WithBuilder replaces BuildMenu
func WithBuilder(build Builder) Option {
	return func(s *Sync) { s.build = build }
}

// NewSync creates a sync in the absent state
func NewSync(shell Shell, cmds Commands, docs query.Query[*settings.AppSettings], opts ...Option) *Sync {
	s := &Sync{
		shell: shell,
		cmds:  cmds,
		docs:  docs,
		build: func(_ context.Context, doc *settings.AppSettings) Menu {
			return BuildMenu(doc)
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates the icon and installs the first menu. Starting while
// creating or ready does nothing. A failed registration leaves the
// sync absent.
func (s *Sync) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateAbsent {
		s.mu.Unlock()
		return nil
	}
	s.state = StateCreating
	s.mu.Unlock()

	if err := s.shell.Register(ctx, s.iconClicked); err != nil {
		s.mu.Lock()
		s.state = StateAbsent
		s.mu.Unlock()
		s.logger.Error("Failed to create tray icon", zap.Error(err))
		return fmt.Errorf("failed to create tray icon: %w", err)
	}

	workCtx, cancel := context.WithCancel(context.Background())
	wake := make(chan struct{}, 1)
	done := make(chan struct{})

	s.mu.Lock()
	s.state = StateReady
	s.fingerprint = ""
	s.wake = wake
	s.done = done
	s.cancel = cancel
	s.mu.Unlock()

	go s.loop(workCtx, wake, done)

	unsubscribe := s.docs.Subscribe(s.onState)
	s.mu.Lock()
	if s.cancel == nil {
		// closed while starting
		s.mu.Unlock()
		unsubscribe()
		return nil
	}
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	s.logger.Info("Tray icon created")

	doc, err := s.docs.Get(ctx)
	if err != nil {
		s.logger.Warn("Settings unavailable, installing empty menu", zap.Error(err))
		doc = nil
	}
	s.request(doc)
	return nil
}

// Close stops the worker and removes the icon
func (s *Sync) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateReady || s.cancel == nil {
		s.mu.Unlock()
		return nil
	}
	unsubscribe, cancel, done := s.unsubscribe, s.cancel, s.done
	s.unsubscribe = nil
	s.cancel = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	cancel()
	<-done

	err := s.shell.Remove(ctx)

	s.mu.Lock()
	s.state = StateAbsent
	s.pending = nil
	s.fingerprint = ""
	s.menu = Menu{}
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to remove tray icon: %w", err)
	}
	s.logger.Info("Tray icon removed")
	return nil
}

// State returns the lifecycle state
func (s *Sync) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns the state, revisions and a copy of the installed menu
func (s *Sync) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		State:     s.state,
		Requested: s.requested,
		Installed: s.installed,
		Menu:      s.menu.Clone(),
	}
}

// Activate runs the action of an installed menu item
func (s *Sync) Activate(ctx context.Context, itemID string) error {
	s.mu.Lock()
	ready := s.state == StateReady
	item, ok := s.menu.Find(itemID)
	s.mu.Unlock()

	if !ready {
		return ErrNotReady
	}
	if !ok || !item.Enabled || item.Action == ActionNone {
		return fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}

	switch item.Action {
	case ActionLaunchSite:
		return s.cmds.LaunchSite(ctx, item.Target)
	case ActionLaunchProxy:
		return s.cmds.LaunchProxy(ctx, item.Target)
	case ActionQuit:
		return s.cmds.Quit(ctx)
	}
	return fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
}

// ClickIcon toggles the main window
func (s *Sync) ClickIcon(ctx context.Context) {
	s.cmds.ToggleWindow(ctx)
}

func (s *Sync) iconClicked() {
	s.ClickIcon(context.Background())
}

func (s *Sync) onState(state query.State) {
	if state.Status != query.StatusSuccess {
		return
	}
	doc, ok := state.Data.(*settings.AppSettings)
	if !ok {
		return
	}
	s.request(doc)
}

// request queues a rebuild when the menu projection changed
func (s *Sync) request(doc *settings.AppSettings) {
	fp, err := Fingerprint(doc)
	if err != nil {
		s.logger.Error("Failed to fingerprint settings", zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady || fp == s.fingerprint {
		return
	}
	s.fingerprint = fp
	s.requested++
	s.pending = &request{revision: s.requested, doc: doc}

	s.logger.Debug("Tray rebuild requested",
		zap.Uint64("revision", s.requested),
		zap.String("fingerprint", utils.Short(fp)))

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Sync) loop(ctx context.Context, wake <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-wake:
		}

		s.mu.Lock()
		req := s.pending
		s.pending = nil
		s.mu.Unlock()

		if req != nil {
			s.rebuild(ctx, req)
		}
	}
}

func (s *Sync) rebuild(ctx context.Context, req *request) {
	menu := s.build(ctx, req.doc)
	menu.Revision = req.revision

	s.mu.Lock()
	stale := req.revision < s.requested || req.revision <= s.installed
	s.mu.Unlock()
	if stale || ctx.Err() != nil {
		s.metrics.RecordTrayRebuild(monitoring.RebuildDiscarded, 0)
		s.logger.Debug("Tray rebuild discarded", zap.Uint64("revision", req.revision))
		return
	}

	if err := s.shell.SetMenu(ctx, menu); err != nil {
		s.metrics.RecordTrayRebuild(monitoring.RebuildFailed, 0)
		s.logger.Error("Failed to install tray menu",
			zap.Uint64("revision", req.revision),
			zap.Error(err))

		// let the same document trigger another attempt
		s.mu.Lock()
		if req.revision == s.requested {
			s.fingerprint = ""
		}
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.menu = menu
	s.installed = req.revision
	s.mu.Unlock()

	entries := menu.Entries()
	s.metrics.RecordTrayRebuild(monitoring.RebuildInstalled, entries)
	s.logger.Info("Tray menu installed",
		zap.Uint64("revision", req.revision),
		zap.Int("entries", entries))
}
