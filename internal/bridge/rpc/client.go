package rpc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/bridge"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/domain/settings"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/infrastructure/tracing"
)

// ErrHostUnavailable is returned while the breaker is open
var ErrHostUnavailable = errors.New("host unavailable: circuit breaker open")

// envelope is the host's response shape for every command
type envelope[T any] struct {
	OK    bool   `json:"ok"`
	Data  T      `json:"data"`
	Error string `json:"error"`
}

// Options configures the transport
type Options struct {
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
	Breaker resilience.Settings
}

// Client invokes host commands over HTTP: POST {base}/invoke/{command}
// with a snake_case JSON argument object. It never retries; retry policy
// belongs to the query cache.
type Client struct {
	resty   *resty.Client
	breaker *resilience.Breaker
	logger  *zap.Logger
}

var _ bridge.Host = (*Client)(nil)

// New creates a transport for the host at opts.BaseURL
func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	restyClient := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "ProxyLauncher-Engine/1.0").
		SetJSONMarshaler(sonic.ConfigStd.Marshal).
		SetJSONUnmarshaler(sonic.ConfigStd.Unmarshal)

	logger := opts.Logger
	breakerSettings := opts.Breaker
	if breakerSettings.ReadyToTrip == nil {
		breakerSettings.ReadyToTrip = func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		}
	}
	if breakerSettings.Timeout == 0 {
		breakerSettings.Timeout = 15 * time.Second
	}
	// the host answering with an error means it is alive
	breakerSettings.IsSuccessful = func(err error) bool {
		var hostErr *bridge.HostError
		return err == nil || errors.As(err, &hostErr)
	}
	breakerSettings.OnStateChange = func(name string, from, to resilience.State) {
		logger.Warn("Bridge circuit breaker state change",
			zap.String("breaker", name),
			zap.Stringer("from", from),
			zap.Stringer("to", to))
	}

	return &Client{
		resty:   restyClient,
		breaker: resilience.New("host-bridge", breakerSettings),
		logger:  logger,
	}
}

// BreakerState returns the current circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

func invoke[T any](ctx context.Context, c *Client, command string, args map[string]any) (T, error) {
	var zero T
	if args == nil {
		args = map[string]any{}
	}

	headers := map[string]string{}
	tracing.InjectTraceContext(ctx, headers)

	resp, err := resilience.Call(c.breaker, func() (*resty.Response, error) {
		resp, err := c.resty.R().
			SetContext(ctx).
			SetHeaders(headers).
			SetBody(args).
			Post("/invoke/" + command)
		if err != nil {
			return nil, fmt.Errorf("transport: %w", err)
		}
		if resp.StatusCode() >= 500 && len(resp.Body()) == 0 {
			return nil, fmt.Errorf("transport: host returned %s", resp.Status())
		}
		return resp, nil
	})
	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		return zero, ErrHostUnavailable
	}
	if err != nil {
		return zero, err
	}

	var env envelope[T]
	if err := sonic.ConfigStd.Unmarshal(resp.Body(), &env); err != nil {
		return zero, fmt.Errorf("decode %s response (status %d): %w", command, resp.StatusCode(), err)
	}
	if !env.OK {
		message := env.Error
		if message == "" {
			message = resp.Status()
		}
		return zero, &bridge.HostError{Command: command, Message: message}
	}
	return env.Data, nil
}

func invokeVoid(ctx context.Context, c *Client, command string, args map[string]any) error {
	_, err := invoke[any](ctx, c, command, args)
	return err
}

func (c *Client) DetectBrowsers(ctx context.Context) ([]settings.Browser, error) {
	return invoke[[]settings.Browser](ctx, c, bridge.CmdDetectBrowsers, nil)
}

func (c *Client) LaunchSite(ctx context.Context, siteID string) error {
	return invokeVoid(ctx, c, bridge.CmdLaunchSite, map[string]any{"site_id": siteID})
}

func (c *Client) LaunchProxy(ctx context.Context, proxyID string) error {
	return invokeVoid(ctx, c, bridge.CmdLaunchProxy, map[string]any{"proxy_id": proxyID})
}

func (c *Client) LoadSettings(ctx context.Context) (*settings.AppSettings, error) {
	return invoke[*settings.AppSettings](ctx, c, bridge.CmdLoadSettings, nil)
}

func (c *Client) SaveSettings(ctx context.Context, doc *settings.AppSettings) error {
	return invokeVoid(ctx, c, bridge.CmdSaveSettings, map[string]any{"settings": doc})
}

func (c *Client) SettingsPath(ctx context.Context) (string, error) {
	return invoke[string](ctx, c, bridge.CmdSettingsPath, nil)
}

func (c *Client) BrowseForBrowser(ctx context.Context) (string, bool, error) {
	return browse(invoke[*string](ctx, c, bridge.CmdBrowseBrowser, nil))
}

func (c *Client) BrowseSaveFile(ctx context.Context, defaultName string) (string, bool, error) {
	return browse(invoke[*string](ctx, c, bridge.CmdBrowseSaveFile, map[string]any{"default_filename": defaultName}))
}

func (c *Client) BrowseOpenFile(ctx context.Context, extensions []string) (string, bool, error) {
	if extensions == nil {
		extensions = []string{}
	}
	return browse(invoke[*string](ctx, c, bridge.CmdBrowseOpenFile, map[string]any{"filters": extensions}))
}

func (c *Client) ExportSettings(ctx context.Context, path string) error {
	return invokeVoid(ctx, c, bridge.CmdExportSettings, map[string]any{"file_path": path})
}

func (c *Client) ImportSettings(ctx context.Context, path string) (*settings.AppSettings, error) {
	return invoke[*settings.AppSettings](ctx, c, bridge.CmdImportSettings, map[string]any{"file_path": path})
}

func (c *Client) ToggleWindow(ctx context.Context) error {
	return invokeVoid(ctx, c, bridge.CmdToggleWindow, nil)
}

func (c *Client) Quit(ctx context.Context) error {
	return invokeVoid(ctx, c, bridge.CmdQuit, nil)
}

func (c *Client) AutostartStatus(ctx context.Context) (bool, error) {
	return invoke[bool](ctx, c, bridge.CmdAutostartStatus, nil)
}

func (c *Client) SetAutostart(ctx context.Context, enabled bool) error {
	return invokeVoid(ctx, c, bridge.CmdSetAutostart, map[string]any{"enabled": enabled})
}

// browse maps a nullable path onto (path, picked)
func browse(path *string, err error) (string, bool, error) {
	if err != nil {
		return "", false, err
	}
	if path == nil || *path == "" {
		return "", false, nil
	}
	return *path, true, nil
}
