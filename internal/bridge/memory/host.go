package memory

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/bridge"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/domain/settings"
)

// DefaultSettingsPath mimics the host's config location
const DefaultSettingsPath = "/home/user/.config/browser-proxy-launcher/settings.json"

// SaveHook runs inside SaveSettings before the document is committed.
// Returning an error fails the save. Hooks may block to force interleavings.
type SaveHook func(ctx context.Context, doc *settings.AppSettings) error

// Launch records one launch request
type Launch struct {
	Kind string // "site" or "proxy"
	ID   string
}

// Host is an in-process bridge.Host holding the document in memory.
// Stored and returned documents are always deep copies.
type Host struct {
	mu sync.Mutex

	doc       *settings.AppSettings
	path      string
	detected  []settings.Browser
	files     map[string][]byte
	picks     map[string]string
	failures  map[string]failure
	saveHooks []SaveHook
	calls     map[string]int

	launches      []Launch
	windowVisible bool
	autostart     bool
	quit          chan struct{}
	quitOnce      sync.Once
}

type failure struct {
	err       error
	remaining int // < 0 means until cleared
}

var _ bridge.Host = (*Host)(nil)

// Option configures a Host
type Option func(*Host)

// WithDocument seeds the persisted document
func WithDocument(doc *settings.AppSettings) Option {
	return func(h *Host) { h.doc = doc.Clone().Normalize() }
}

// WithDetected sets what browser detection finds
func WithDetected(browsers ...settings.Browser) Option {
	return func(h *Host) { h.detected = append([]settings.Browser(nil), browsers...) }
}

// WithSettingsPath overrides the reported settings path
func WithSettingsPath(path string) Option {
	return func(h *Host) { h.path = path }
}

// New creates a host holding the first-run default document
func New(opts ...Option) *Host {
	h := &Host{
		doc:           settings.Default(),
		path:          DefaultSettingsPath,
		files:         make(map[string][]byte),
		picks:         make(map[string]string),
		failures:      make(map[string]failure),
		calls:         make(map[string]int),
		windowVisible: true,
		quit:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewFromFile creates a host seeded from a JSON, YAML or TOML document
func NewFromFile(path string, opts ...Option) (*Host, error) {
	doc, err := settings.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return New(append([]Option{WithDocument(doc)}, opts...)...), nil
}

// Fail makes every call of command fail with err until cleared
func (h *Host) Fail(command string, err error) {
	h.FailN(command, -1, err)
}

// FailN makes the next n calls of command fail with err
func (h *Host) FailN(command string, n int, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures[command] = failure{err: err, remaining: n}
}

// Clear removes injected failures for command
func (h *Host) Clear(command string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.failures, command)
}

// OnSave registers a hook run before each save commits
func (h *Host) OnSave(hook SaveHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.saveHooks = append(h.saveHooks, hook)
}

// SetPick sets what a file picker command returns; "" means cancel
func (h *Host) SetPick(command, path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.picks[command] = path
}

// PutFile stores a file the import command can read
func (h *Host) PutFile(path string, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.files[path] = append([]byte(nil), data...)
}

// File returns a file written by export
func (h *Host) File(path string) ([]byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	data, ok := h.files[path]
	return data, ok
}

// Document returns a copy of the persisted document
func (h *Host) Document() *settings.AppSettings {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.doc.Clone()
}

// Calls returns how many times command was invoked
func (h *Host) Calls(command string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls[command]
}

// Launches returns the recorded launch requests
func (h *Host) Launches() []Launch {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Launch(nil), h.launches...)
}

// WindowVisible reports the simulated main window visibility
func (h *Host) WindowVisible() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.windowVisible
}

// Done is closed once quit has been requested
func (h *Host) Done() <-chan struct{} {
	return h.quit
}

// enter counts the call and returns an injected failure, if any
func (h *Host) enter(ctx context.Context, command string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.calls[command]++
	f, ok := h.failures[command]
	if !ok {
		return nil
	}
	if f.remaining > 0 {
		f.remaining--
		if f.remaining == 0 {
			delete(h.failures, command)
		} else {
			h.failures[command] = f
		}
	}
	return f.err
}

func (h *Host) DetectBrowsers(ctx context.Context) ([]settings.Browser, error) {
	if err := h.enter(ctx, bridge.CmdDetectBrowsers); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.detected != nil {
		return append([]settings.Browser{}, h.detected...), nil
	}
	return append([]settings.Browser{}, h.doc.Browsers...), nil
}

func (h *Host) LaunchSite(ctx context.Context, siteID string) error {
	return h.launch(ctx, bridge.CmdLaunchSite, "site", siteID)
}

func (h *Host) LaunchProxy(ctx context.Context, proxyID string) error {
	return h.launch(ctx, bridge.CmdLaunchProxy, "proxy", proxyID)
}

func (h *Host) launch(ctx context.Context, command, kind, id string) error {
	if err := h.enter(ctx, command); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	var found bool
	if kind == "site" {
		found = h.doc.FindSite(id) >= 0
	} else {
		found = h.doc.FindProxy(id) >= 0
	}
	if !found {
		return &bridge.HostError{Command: command, Message: fmt.Sprintf("%s not found: %s", kind, id)}
	}

	h.launches = append(h.launches, Launch{Kind: kind, ID: id})
	return nil
}

func (h *Host) LoadSettings(ctx context.Context) (*settings.AppSettings, error) {
	if err := h.enter(ctx, bridge.CmdLoadSettings); err != nil {
		return nil, err
	}
	return h.Document(), nil
}

// SaveSettings stores the document as given. Sites pointing at missing
// proxies are kept; references are resolved at display time.
func (h *Host) SaveSettings(ctx context.Context, doc *settings.AppSettings) error {
	if err := h.enter(ctx, bridge.CmdSaveSettings); err != nil {
		return err
	}
	if doc == nil {
		return &bridge.HostError{Command: bridge.CmdSaveSettings, Message: "missing settings"}
	}

	next := doc.Clone().Normalize()

	h.mu.Lock()
	hooks := append([]SaveHook(nil), h.saveHooks...)
	h.mu.Unlock()

	for _, hook := range hooks {
		if err := hook(ctx, next.Clone()); err != nil {
			return err
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.doc = next
	h.autostart = next.LaunchOnStartup
	return nil
}

func (h *Host) SettingsPath(ctx context.Context) (string, error) {
	if err := h.enter(ctx, bridge.CmdSettingsPath); err != nil {
		return "", err
	}
	return h.path, nil
}

func (h *Host) BrowseForBrowser(ctx context.Context) (string, bool, error) {
	return h.pick(ctx, bridge.CmdBrowseBrowser)
}

func (h *Host) BrowseSaveFile(ctx context.Context, defaultName string) (string, bool, error) {
	path, ok, err := h.pick(ctx, bridge.CmdBrowseSaveFile)
	if ok && strings.HasSuffix(path, "/") {
		path += defaultName
	}
	return path, ok, err
}

func (h *Host) BrowseOpenFile(ctx context.Context, extensions []string) (string, bool, error) {
	path, ok, err := h.pick(ctx, bridge.CmdBrowseOpenFile)
	if err != nil || !ok || len(extensions) == 0 {
		return path, ok, err
	}

	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	for _, allowed := range extensions {
		if strings.EqualFold(ext, allowed) {
			return path, true, nil
		}
	}
	return "", false, nil
}

func (h *Host) pick(ctx context.Context, command string) (string, bool, error) {
	if err := h.enter(ctx, command); err != nil {
		return "", false, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	path := h.picks[command]
	return path, path != "", nil
}

// ExportSettings writes the persisted document as indented JSON
func (h *Host) ExportSettings(ctx context.Context, path string) error {
	if err := h.enter(ctx, bridge.CmdExportSettings); err != nil {
		return err
	}

	data, err := settings.Encode(settings.FormatJSON, h.Document())
	if err != nil {
		return &bridge.HostError{Command: bridge.CmdExportSettings, Message: err.Error()}
	}
	h.PutFile(path, data)
	return nil
}

// ImportSettings reads a previously exported or stored file and persists it
func (h *Host) ImportSettings(ctx context.Context, path string) (*settings.AppSettings, error) {
	if err := h.enter(ctx, bridge.CmdImportSettings); err != nil {
		return nil, err
	}

	data, ok := h.File(path)
	if !ok {
		return nil, &bridge.HostError{Command: bridge.CmdImportSettings, Message: "Failed to read settings file: " + path}
	}
	doc, err := settings.ReadBytes(path, data)
	if err != nil {
		return nil, &bridge.HostError{Command: bridge.CmdImportSettings, Message: err.Error()}
	}

	h.mu.Lock()
	h.doc = doc.Clone()
	h.autostart = doc.LaunchOnStartup
	h.mu.Unlock()

	return doc, nil
}

func (h *Host) ToggleWindow(ctx context.Context) error {
	if err := h.enter(ctx, bridge.CmdToggleWindow); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.windowVisible = !h.windowVisible
	return nil
}

func (h *Host) Quit(ctx context.Context) error {
	if err := h.enter(ctx, bridge.CmdQuit); err != nil {
		return err
	}
	h.quitOnce.Do(func() { close(h.quit) })
	return nil
}

func (h *Host) AutostartStatus(ctx context.Context) (bool, error) {
	if err := h.enter(ctx, bridge.CmdAutostartStatus); err != nil {
		return false, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.autostart, nil
}

func (h *Host) SetAutostart(ctx context.Context, enabled bool) error {
	if err := h.enter(ctx, bridge.CmdSetAutostart); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.autostart = enabled
	return nil
}
