package bridge

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/domain/settings"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/infrastructure/monitoring"
)

// ErrEmptyDocument is returned when the host answers a document command
// without a document
var ErrEmptyDocument = errors.New("host returned no settings document")

// Client applies the failure policy on top of a Host:
//   - detect browsers: empty list on failure
//   - settings path: "" on failure
//   - browse*: none on failure
//   - autostart status: false on failure
//   - toggle window: fire-and-forget, failure logged
//   - everything else: failure returned to the caller
type Client struct {
	host    Host
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewClient wraps a host. Logger and metrics may be nil.
func NewClient(host Host, logger *zap.Logger, metrics *monitoring.Metrics) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{host: host, logger: logger, metrics: metrics}
}

// DetectBrowsers never fails; a failed detection yields an empty list
func (c *Client) DetectBrowsers(ctx context.Context) []settings.Browser {
	browsers, err := call(ctx, c, CmdDetectBrowsers, c.host.DetectBrowsers)
	if err != nil {
		c.swallow(CmdDetectBrowsers, err)
		return []settings.Browser{}
	}
	if browsers == nil {
		browsers = []settings.Browser{}
	}
	return browsers
}

// LaunchSite opens a site in its configured browser
func (c *Client) LaunchSite(ctx context.Context, siteID string) error {
	return exec(ctx, c, CmdLaunchSite, func(ctx context.Context) error {
		return c.host.LaunchSite(ctx, siteID)
	})
}

// LaunchProxy opens the default browser through a proxy
func (c *Client) LaunchProxy(ctx context.Context, proxyID string) error {
	return exec(ctx, c, CmdLaunchProxy, func(ctx context.Context) error {
		return c.host.LaunchProxy(ctx, proxyID)
	})
}

// LoadSettings reads the whole document
func (c *Client) LoadSettings(ctx context.Context) (*settings.AppSettings, error) {
	doc, err := call(ctx, c, CmdLoadSettings, c.host.LoadSettings)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%s: %w", CmdLoadSettings, ErrEmptyDocument)
	}
	return doc.Normalize(), nil
}

// SaveSettings replaces the whole document
func (c *Client) SaveSettings(ctx context.Context, doc *settings.AppSettings) error {
	return exec(ctx, c, CmdSaveSettings, func(ctx context.Context) error {
		return c.host.SaveSettings(ctx, doc)
	})
}

// SettingsPath never fails; a failed lookup yields ""
func (c *Client) SettingsPath(ctx context.Context) string {
	path, err := call(ctx, c, CmdSettingsPath, c.host.SettingsPath)
	if err != nil {
		c.swallow(CmdSettingsPath, err)
		return ""
	}
	return path
}

// BrowseForBrowser asks the user for an executable; false on cancel or failure
func (c *Client) BrowseForBrowser(ctx context.Context) (string, bool) {
	return c.browse(ctx, CmdBrowseBrowser, c.host.BrowseForBrowser)
}

// BrowseSaveFile asks the user for a destination; false on cancel or failure
func (c *Client) BrowseSaveFile(ctx context.Context, defaultName string) (string, bool) {
	return c.browse(ctx, CmdBrowseSaveFile, func(ctx context.Context) (string, bool, error) {
		return c.host.BrowseSaveFile(ctx, defaultName)
	})
}

// BrowseOpenFile asks the user for a source file; false on cancel or failure
func (c *Client) BrowseOpenFile(ctx context.Context, extensions []string) (string, bool) {
	return c.browse(ctx, CmdBrowseOpenFile, func(ctx context.Context) (string, bool, error) {
		return c.host.BrowseOpenFile(ctx, extensions)
	})
}

// ExportSettings writes the persisted document to path
func (c *Client) ExportSettings(ctx context.Context, path string) error {
	return exec(ctx, c, CmdExportSettings, func(ctx context.Context) error {
		return c.host.ExportSettings(ctx, path)
	})
}

// ImportSettings makes the host persist the document at path and returns it
func (c *Client) ImportSettings(ctx context.Context, path string) (*settings.AppSettings, error) {
	doc, err := call(ctx, c, CmdImportSettings, func(ctx context.Context) (*settings.AppSettings, error) {
		return c.host.ImportSettings(ctx, path)
	})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%s: %w", CmdImportSettings, ErrEmptyDocument)
	}
	return doc.Normalize(), nil
}

// ToggleWindow shows or hides the main window without waiting for the host
func (c *Client) ToggleWindow(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := exec(ctx, c, CmdToggleWindow, c.host.ToggleWindow); err != nil {
			c.swallow(CmdToggleWindow, err)
		}
	}()
}

// Quit terminates the application
func (c *Client) Quit(ctx context.Context) error {
	return exec(ctx, c, CmdQuit, c.host.Quit)
}

// AutostartStatus never fails; a failed lookup reads as disabled
func (c *Client) AutostartStatus(ctx context.Context) bool {
	enabled, err := call(ctx, c, CmdAutostartStatus, c.host.AutostartStatus)
	if err != nil {
		c.swallow(CmdAutostartStatus, err)
		return false
	}
	return enabled
}

// SetAutostart registers or removes the login item
func (c *Client) SetAutostart(ctx context.Context, enabled bool) error {
	return exec(ctx, c, CmdSetAutostart, func(ctx context.Context) error {
		return c.host.SetAutostart(ctx, enabled)
	})
}

func (c *Client) browse(ctx context.Context, command string, fn func(context.Context) (string, bool, error)) (string, bool) {
	type pick struct {
		path string
		ok   bool
	}
	result, err := call(ctx, c, command, func(ctx context.Context) (pick, error) {
		path, ok, err := fn(ctx)
		return pick{path, ok}, err
	})
	if err != nil {
		c.swallow(command, err)
		return "", false
	}
	if !result.ok || result.path == "" {
		return "", false
	}
	return result.path, true
}

func (c *Client) swallow(command string, err error) {
	c.logger.Warn("Bridge command failed, using default",
		zap.String("command", command),
		zap.Error(err))
	c.metrics.RecordSwallowed(command)
}

func call[T any](ctx context.Context, c *Client, command string, fn func(context.Context) (T, error)) (T, error) {
	timer := monitoring.NewTimer(c.metrics, monitoring.ComponentBridge, command)

	result, err := fn(ctx)
	if err != nil {
		elapsed := timer.Stop(monitoring.StatusError)
		c.metrics.RecordOperationError(monitoring.ComponentBridge, command, errorType(err))
		c.logger.Debug("Bridge command failed",
			zap.String("command", command),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))

		var zero T
		return zero, fmt.Errorf("%s: %w", command, err)
	}

	timer.Stop(monitoring.StatusSuccess)
	return result, nil
}

func exec(ctx context.Context, c *Client, command string, fn func(context.Context) error) error {
	_, err := call(ctx, c, command, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func errorType(err error) string {
	var hostErr *HostError
	if errors.As(err, &hostErr) {
		return monitoring.ErrorHost
	}
	return monitoring.ErrorTransport
}
