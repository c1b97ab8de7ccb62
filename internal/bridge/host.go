package bridge

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/domain/settings"
)

// Command names as the host process registers them
const (
	CmdDetectBrowsers  = "detect_browsers"
	CmdLaunchSite      = "launch_site"
	CmdLaunchProxy     = "launch_proxy"
	CmdLoadSettings    = "load_settings"
	CmdSaveSettings    = "save_settings"
	CmdSettingsPath    = "get_settings_path"
	CmdBrowseBrowser   = "browse_for_browser_executable"
	CmdBrowseSaveFile  = "browse_save_file"
	CmdBrowseOpenFile  = "browse_open_file"
	CmdExportSettings  = "export_settings"
	CmdImportSettings  = "import_settings"
	CmdToggleWindow    = "toggle_window"
	CmdQuit            = "quit_app"
	CmdAutostartStatus = "get_autostart_status"
	CmdSetAutostart    = "set_autostart"
)

// Host is the raw command bridge to the process that owns the settings
// file, detects browsers and launches them. Every method may fail; the
// failure policy lives in Client, not here.
//
// The browse methods return ("", false, nil) when the user cancels.
type Host interface {
	DetectBrowsers(ctx context.Context) ([]settings.Browser, error)
	LaunchSite(ctx context.Context, siteID string) error
	LaunchProxy(ctx context.Context, proxyID string) error
	LoadSettings(ctx context.Context) (*settings.AppSettings, error)
	SaveSettings(ctx context.Context, doc *settings.AppSettings) error
	SettingsPath(ctx context.Context) (string, error)
	BrowseForBrowser(ctx context.Context) (string, bool, error)
	BrowseSaveFile(ctx context.Context, defaultName string) (string, bool, error)
	BrowseOpenFile(ctx context.Context, extensions []string) (string, bool, error)
	ExportSettings(ctx context.Context, path string) error
	ImportSettings(ctx context.Context, path string) (*settings.AppSettings, error)
	ToggleWindow(ctx context.Context) error
	Quit(ctx context.Context) error
	AutostartStatus(ctx context.Context) (bool, error)
	SetAutostart(ctx context.Context, enabled bool) error
}

// HostError is a failure reported by the host itself, as opposed to a
// transport failure reaching it.
type HostError struct {
	Command string
	Message string
}

func (e *HostError) Error() string {
	return fmt.Sprintf("host rejected %s: %s", e.Command, e.Message)
}
