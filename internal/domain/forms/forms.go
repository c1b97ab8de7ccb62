package forms

import (
	"strings"

	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/domain/settings"
)

// NoProxy is the site form's proxy choice meaning "direct connection"
const NoProxy = "none"

// DefaultProxyPort is used when a host/port proxy is submitted without a port
const DefaultProxyPort = 8080

// ProxyForm is the submitted proxy dialog
type ProxyForm struct {
	Name     string             `json:"name" validate:"required,max=256"`
	Type     settings.ProxyKind `json:"type" validate:"required,oneof=http socks5 pac"`
	Host     string             `json:"host" validate:"max=256"`
	Port     int                `json:"port" validate:"omitempty,min=1,max=65535"`
	Username string             `json:"username"`
	Password string             `json:"password"`
	URL      string             `json:"url" validate:"max=2048"`
}

// SiteForm is the submitted site dialog
type SiteForm struct {
	Name      string `json:"name" validate:"required,max=256"`
	URL       string `json:"url" validate:"required,url"`
	BrowserID string `json:"browser_id" validate:"required,max=128"`
	ProxyID   string `json:"proxy_id" validate:"max=128"`
}

// PreferencesForm is the submitted settings page
type PreferencesForm struct {
	DefaultBrowser   string         `json:"default_browser" validate:"required,max=128"`
	DefaultLaunchURL string         `json:"default_launch_url" validate:"omitempty,url"`
	Theme            settings.Theme `json:"theme" validate:"required,oneof=light dark system"`
	LaunchOnStartup  bool           `json:"launch_on_startup"`
	IgnoreCertErrors bool           `json:"ignore_cert_errors"`
}

// MapProxy turns a validated proxy form into a record without an id.
// It never fails: pac records get host "" and port 0 and keep the url,
// host/port records keep host and port (defaulting to 8080) and drop the url.
func MapProxy(f ProxyForm) settings.ProxyConfig {
	username := optional(f.Username)
	password := optional(f.Password)

	if f.Type == settings.ProxyPAC {
		cfg := settings.NewProxyConfig("", trim(f.Name), settings.PACScript{
			URL:      f.URL,
			Username: username,
			Password: password,
		})
		if f.URL == "" {
			cfg.URL = nil
		}
		return cfg
	}

	port := f.Port
	if port == 0 {
		port = DefaultProxyPort
	}

	return settings.NewProxyConfig("", trim(f.Name), settings.HostPort{
		Scheme:   f.Type,
		Host:     f.Host,
		Port:     port,
		Username: username,
		Password: password,
	})
}

// MapSite turns a validated site form into a record without an id.
// The "none" proxy choice becomes an absent proxy; the browser id is not
// checked against the browser collection.
func MapSite(f SiteForm) settings.SiteConfig {
	site := settings.SiteConfig{
		Name:      trim(f.Name),
		URL:       trim(f.URL),
		BrowserID: f.BrowserID,
	}
	if f.ProxyID != NoProxy && f.ProxyID != "" {
		site.ProxyID = settings.StringPtr(f.ProxyID)
	}
	return site
}

// ApplyPreferences writes the form onto a document the caller owns
func ApplyPreferences(doc *settings.AppSettings, f PreferencesForm) {
	doc.DefaultBrowser = f.DefaultBrowser
	doc.DefaultLaunchURL = trim(f.DefaultLaunchURL)
	doc.Theme = f.Theme
	doc.LaunchOnStartup = f.LaunchOnStartup
	doc.IgnoreCertErrors = f.IgnoreCertErrors
}

// ProxyFormFrom prefills the edit dialog from a stored record
func ProxyFormFrom(p settings.ProxyConfig) ProxyForm {
	port := p.Port
	if port == 0 {
		port = 1
	}
	return ProxyForm{
		Name:     p.Name,
		Type:     p.ProxyType,
		Host:     p.Host,
		Port:     port,
		Username: settings.Deref(p.Username),
		Password: settings.Deref(p.Password),
		URL:      settings.Deref(p.URL),
	}
}

// SiteFormFrom prefills the edit dialog from a stored record
func SiteFormFrom(s settings.SiteConfig) SiteForm {
	proxyID := settings.Deref(s.ProxyID)
	if proxyID == "" {
		proxyID = NoProxy
	}
	return SiteForm{
		Name:      s.Name,
		URL:       s.URL,
		BrowserID: s.BrowserID,
		ProxyID:   proxyID,
	}
}

// PreferencesFormFrom prefills the settings page
func PreferencesFormFrom(doc *settings.AppSettings) PreferencesForm {
	return PreferencesForm{
		DefaultBrowser:   doc.DefaultBrowser,
		DefaultLaunchURL: doc.DefaultLaunchURL,
		Theme:            doc.Theme,
		LaunchOnStartup:  doc.LaunchOnStartup,
		IgnoreCertErrors: doc.IgnoreCertErrors,
	}
}

// NewSiteForm returns the add dialog defaults: the default browser if set,
// else the first known browser, and no proxy.
func NewSiteForm(doc *settings.AppSettings) SiteForm {
	form := SiteForm{ProxyID: NoProxy, BrowserID: doc.DefaultBrowser}
	if form.BrowserID == "" && len(doc.Browsers) > 0 {
		form.BrowserID = doc.Browsers[0].ID
	}
	return form
}

// NewProxyForm returns the add dialog defaults
func NewProxyForm() ProxyForm {
	return ProxyForm{Type: settings.ProxyHTTP, Port: DefaultProxyPort}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return settings.StringPtr(v)
}

func trim(v string) string {
	return strings.TrimSpace(v)
}
