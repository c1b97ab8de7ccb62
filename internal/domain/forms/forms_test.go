package forms

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/domain/settings"
)

func TestMapProxyPAC(t *testing.T) {
	form := ProxyForm{Name: "Corp", Type: settings.ProxyPAC, URL: "http://example.com/proxy.pac"}
	require.NoError(t, ValidateProxy(form))

	record := MapProxy(form)

	assert.Equal(t, settings.ProxyPAC, record.ProxyType)
	assert.Equal(t, "", record.Host)
	assert.Equal(t, 0, record.Port)
	require.NotNil(t, record.URL)
	assert.Equal(t, "http://example.com/proxy.pac", *record.URL)
	assert.Empty(t, record.ID)
	assert.NoError(t, record.Validate())
}

func TestMapProxyPACDiscardsHostPort(t *testing.T) {
	record := MapProxy(ProxyForm{
		Name: "Corp", Type: settings.ProxyPAC,
		Host: "leftover", Port: 3128, URL: "http://example.com/proxy.pac",
	})

	assert.Equal(t, "", record.Host)
	assert.Equal(t, 0, record.Port)
	assert.NoError(t, record.Validate())
}

func TestMapProxyHostPortDropsURL(t *testing.T) {
	for _, kind := range []settings.ProxyKind{settings.ProxyHTTP, settings.ProxySOCKS5} {
		t.Run(string(kind), func(t *testing.T) {
			record := MapProxy(ProxyForm{
				Name: "Office", Type: kind, Host: "10.0.0.1", Port: 3128,
				URL: "http://stale.example.com/proxy.pac",
			})

			assert.Equal(t, kind, record.ProxyType)
			assert.Equal(t, "10.0.0.1", record.Host)
			assert.Equal(t, 3128, record.Port)
			assert.Nil(t, record.URL)
			assert.NoError(t, record.Validate())
		})
	}
}

// Every valid form maps to a record satisfying the storage invariant.
func TestMapProxyInvariantOverValidForms(t *testing.T) {
	var forms []ProxyForm
	for _, kind := range []settings.ProxyKind{settings.ProxyHTTP, settings.ProxySOCKS5, settings.ProxyPAC} {
		for _, port := range []int{1, 80, 8080, 65535} {
			forms = append(forms, ProxyForm{
				Name: fmt.Sprintf("%s-%d", kind, port), Type: kind,
				Host: "proxy.local", Port: port, URL: "http://example.com/p.pac",
				Username: "u", Password: "p",
			})
		}
	}

	for _, form := range forms {
		require.NoError(t, ValidateProxy(form), form.Name)
		record := MapProxy(form)

		if form.Type == settings.ProxyPAC {
			assert.Equal(t, "", record.Host, form.Name)
			assert.Equal(t, 0, record.Port, form.Name)
			assert.NotEmpty(t, settings.Deref(record.URL), form.Name)
		} else {
			assert.NotEmpty(t, record.Host, form.Name)
			assert.GreaterOrEqual(t, record.Port, 1, form.Name)
			assert.LessOrEqual(t, record.Port, settings.MaxPort, form.Name)
			assert.Nil(t, record.URL, form.Name)
		}
		assert.NoError(t, record.Validate(), form.Name)
	}
}

func TestMapProxyNormalizesSilently(t *testing.T) {
	record := MapProxy(ProxyForm{Name: "  Broken ", Type: settings.ProxyHTTP})

	assert.Equal(t, "Broken", record.Name)
	assert.Equal(t, "", record.Host)
	assert.Equal(t, DefaultProxyPort, record.Port)
	assert.Nil(t, record.Username)
	assert.Nil(t, record.Password)
}

func TestMapProxyCredentials(t *testing.T) {
	record := MapProxy(ProxyForm{Name: "Auth", Type: settings.ProxySOCKS5, Host: "h", Port: 1080, Username: "alice", Password: "pw"})

	assert.Equal(t, "alice", settings.Deref(record.Username))
	assert.Equal(t, "pw", settings.Deref(record.Password))
}

func TestMapSite(t *testing.T) {
	form := SiteForm{Name: "Google", URL: "https://www.google.com", BrowserID: "chrome", ProxyID: "1"}
	require.NoError(t, ValidateSite(form))

	site := MapSite(form)

	assert.Equal(t, "Google", site.Name)
	assert.Equal(t, "https://www.google.com", site.URL)
	assert.Equal(t, "chrome", site.BrowserID)
	require.NotNil(t, site.ProxyID)
	assert.Equal(t, "1", *site.ProxyID)
}

func TestMapSiteNoneProxy(t *testing.T) {
	site := MapSite(SiteForm{Name: "Direct", URL: "https://example.com", BrowserID: "edge", ProxyID: NoProxy})
	assert.Nil(t, site.ProxyID)
}

func TestMapSiteDoesNotCheckBrowser(t *testing.T) {
	site := MapSite(SiteForm{Name: "x", URL: "https://example.com", BrowserID: "does-not-exist", ProxyID: NoProxy})
	assert.Equal(t, "does-not-exist", site.BrowserID)
}

func TestValidateProxy(t *testing.T) {
	tests := []struct {
		name       string
		form       ProxyForm
		wantFields []string
	}{
		{"valid http", ProxyForm{Name: "a", Type: settings.ProxyHTTP, Host: "h", Port: 80}, nil},
		{"valid pac", ProxyForm{Name: "a", Type: settings.ProxyPAC, URL: "http://x/p.pac"}, nil},
		{"missing name", ProxyForm{Name: "   ", Type: settings.ProxyHTTP, Host: "h", Port: 80}, []string{"name"}},
		{"unknown type", ProxyForm{Name: "a", Type: "ftp", Host: "h", Port: 21}, []string{"type"}},
		{"pac without url", ProxyForm{Name: "a", Type: settings.ProxyPAC}, []string{"url"}},
		{"http without host", ProxyForm{Name: "a", Type: settings.ProxyHTTP, Port: 80}, []string{"host"}},
		{"http without port", ProxyForm{Name: "a", Type: settings.ProxyHTTP, Host: "h"}, []string{"port"}},
		{"port too large", ProxyForm{Name: "a", Type: settings.ProxySOCKS5, Host: "h", Port: 70000}, []string{"port"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProxy(tt.form)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			for _, field := range tt.wantFields {
				assert.Contains(t, verr.Fields, field)
			}
		})
	}
}

func TestValidateProxyMessages(t *testing.T) {
	err := ValidateProxy(ProxyForm{Name: "a", Type: settings.ProxyHTTP, Host: "h", Port: 70000})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Port must be between 1-65535", verr.Fields["port"])
	assert.Contains(t, err.Error(), "port:")
}

func TestValidateSite(t *testing.T) {
	tests := []struct {
		name      string
		form      SiteForm
		wantField string
	}{
		{"valid", SiteForm{Name: "G", URL: "https://www.google.com", BrowserID: "chrome", ProxyID: NoProxy}, ""},
		{"bad url", SiteForm{Name: "G", URL: "not a url", BrowserID: "chrome"}, "url"},
		{"missing browser", SiteForm{Name: "G", URL: "https://www.google.com"}, "browser_id"},
		{"missing name", SiteForm{URL: "https://www.google.com", BrowserID: "chrome"}, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSite(tt.form)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.wantField)
		})
	}
}

func TestValidatePreferences(t *testing.T) {
	valid := PreferencesForm{DefaultBrowser: "chrome", Theme: settings.ThemeSystem}
	assert.NoError(t, ValidatePreferences(valid))

	withURL := valid
	withURL.DefaultLaunchURL = "https://start.example.com"
	assert.NoError(t, ValidatePreferences(withURL))

	badURL := valid
	badURL.DefaultLaunchURL = "start page"
	assert.Error(t, ValidatePreferences(badURL))

	badTheme := valid
	badTheme.Theme = "solarized"
	var verr *ValidationError
	require.ErrorAs(t, ValidatePreferences(badTheme), &verr)
	assert.Contains(t, verr.Fields, "theme")
}

func TestApplyPreferences(t *testing.T) {
	doc := settings.Default()
	ApplyPreferences(doc, PreferencesForm{
		DefaultBrowser:   "edge",
		DefaultLaunchURL: " https://start.example.com ",
		Theme:            settings.ThemeDark,
		LaunchOnStartup:  true,
		IgnoreCertErrors: true,
	})

	assert.Equal(t, "edge", doc.DefaultBrowser)
	assert.Equal(t, "https://start.example.com", doc.DefaultLaunchURL)
	assert.Equal(t, settings.ThemeDark, doc.Theme)
	assert.True(t, doc.LaunchOnStartup)
	assert.True(t, doc.IgnoreCertErrors)
	assert.Equal(t, PreferencesForm{
		DefaultBrowser: "edge", DefaultLaunchURL: "https://start.example.com",
		Theme: settings.ThemeDark, LaunchOnStartup: true, IgnoreCertErrors: true,
	}, PreferencesFormFrom(doc))
}

func TestPrefillRoundTrip(t *testing.T) {
	proxy := settings.ProxyConfig{ID: "1", Name: "Local", ProxyType: settings.ProxyHTTP, Host: "127.0.0.1", Port: 8080}
	mapped := MapProxy(ProxyFormFrom(proxy))
	mapped.ID = proxy.ID
	assert.Equal(t, proxy, mapped)

	site := settings.SiteConfig{ID: "s", Name: "G", URL: "https://www.google.com", BrowserID: "chrome"}
	form := SiteFormFrom(site)
	assert.Equal(t, NoProxy, form.ProxyID)
	back := MapSite(form)
	back.ID = site.ID
	assert.Equal(t, site, back)
}

func TestNewSiteFormDefaults(t *testing.T) {
	doc := settings.Default()
	doc.DefaultBrowser = ""
	doc.Browsers = []settings.Browser{{ID: "firefox", Name: "Firefox"}}

	form := NewSiteForm(doc)
	assert.Equal(t, "firefox", form.BrowserID)
	assert.Equal(t, NoProxy, form.ProxyID)

	assert.Equal(t, DefaultProxyPort, NewProxyForm().Port)
}
