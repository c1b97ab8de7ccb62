package settings

import (
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() *AppSettings {
	return &AppSettings{
		DefaultBrowser:   "chrome",
		DefaultLaunchURL: "https://start.example.com",
		Theme:            ThemeDark,
		LaunchOnStartup:  true,
		IgnoreCertErrors: false,
		Browsers: []Browser{
			{ID: "chrome", Name: "Google Chrome", Path: "/usr/bin/google-chrome"},
			{ID: "edge", Name: "Microsoft Edge", Path: "/usr/bin/microsoft-edge"},
		},
		Sites: []SiteConfig{
			{ID: "s1", Name: "Google", URL: "https://www.google.com", BrowserID: "chrome", ProxyID: StringPtr("1")},
			{ID: "s2", Name: "Intranet", URL: "https://intranet.local", BrowserID: "edge"},
		},
		Proxies: []ProxyConfig{
			{ID: "1", Name: "Local", ProxyType: ProxyHTTP, Host: "127.0.0.1", Port: 8080},
			{ID: "2", Name: "Corp PAC", ProxyType: ProxyPAC, URL: StringPtr("http://example.com/proxy.pac")},
			{ID: "3", Name: "Tunnel", ProxyType: ProxySOCKS5, Host: "10.0.0.2", Port: 1080,
				Username: StringPtr("user"), Password: StringPtr("secret")},
		},
	}
}

func TestDefault(t *testing.T) {
	doc := Default()

	assert.Equal(t, "chrome", doc.DefaultBrowser)
	assert.Equal(t, ThemeSystem, doc.Theme)
	assert.False(t, doc.LaunchOnStartup)
	assert.False(t, doc.IgnoreCertErrors)
	assert.NotNil(t, doc.Browsers)
	assert.NotNil(t, doc.Sites)
	assert.NotNil(t, doc.Proxies)
}

func TestCloneIsDeep(t *testing.T) {
	original := sampleDocument()
	clone := original.Clone()

	require.Equal(t, original, clone)

	clone.Sites[0].Name = "Changed"
	*clone.Sites[0].ProxyID = "other"
	*clone.Proxies[2].Password = "leaked"
	clone.Browsers[0].Path = "/tmp/chrome"
	clone.Proxies = append(clone.Proxies, ProxyConfig{ID: "4"})

	assert.Equal(t, "Google", original.Sites[0].Name)
	assert.Equal(t, "1", *original.Sites[0].ProxyID)
	assert.Equal(t, "secret", *original.Proxies[2].Password)
	assert.Equal(t, "/usr/bin/google-chrome", original.Browsers[0].Path)
	assert.Len(t, original.Proxies, 3)
}

func TestCloneNil(t *testing.T) {
	var doc *AppSettings
	assert.Nil(t, doc.Clone())
}

func TestWireFieldNames(t *testing.T) {
	data, err := sonic.ConfigStd.Marshal(sampleDocument())
	require.NoError(t, err)

	body := string(data)
	for _, key := range []string{
		`"default_browser"`, `"default_launch_url"`, `"theme"`, `"launch_on_startup"`,
		`"ignore_cert_errors"`, `"browsers"`, `"sites"`, `"proxies"`,
		`"proxy_type"`, `"browser_id"`, `"proxy_id"`, `"username"`, `"password"`, `"url"`,
	} {
		assert.Contains(t, body, key)
	}

	// absent optionals are omitted, not null
	assert.NotContains(t, body, `"proxy_id":null`)
	assert.NotContains(t, body, `"url":null`)
}

func TestCodecFormatsAgree(t *testing.T) {
	doc := sampleDocument()

	for _, format := range []Format{FormatJSON, FormatYAML, FormatTOML} {
		t.Run(string(format), func(t *testing.T) {
			data, err := Encode(format, doc)
			require.NoError(t, err)

			decoded, err := Decode(format, data)
			require.NoError(t, err)
			assert.Equal(t, doc, decoded)
		})
	}
}

func TestDecodeYAMLFixture(t *testing.T) {
	fixture := `
default_browser: edge
default_launch_url: ""
theme: light
launch_on_startup: false
ignore_cert_errors: true
browsers:
  - id: edge
    name: Microsoft Edge
    path: C:\Program Files\Microsoft\Edge\msedge.exe
sites:
  - id: "10"
    name: Docs
    url: https://docs.example.com
    browser_id: edge
    proxy_id: "20"
proxies:
  - id: "20"
    name: Office
    proxy_type: socks5
    host: 192.168.1.1
    port: 1080
`
	doc, err := Decode(FormatYAML, []byte(fixture))
	require.NoError(t, err)

	assert.Equal(t, "edge", doc.DefaultBrowser)
	assert.Equal(t, ThemeLight, doc.Theme)
	assert.True(t, doc.IgnoreCertErrors)
	require.Len(t, doc.Sites, 1)
	assert.Equal(t, "20", Deref(doc.Sites[0].ProxyID))
	require.Len(t, doc.Proxies, 1)
	assert.Equal(t, ProxySOCKS5, doc.Proxies[0].ProxyType)
	assert.Equal(t, 1080, doc.Proxies[0].Port)
}

func TestDecodeNormalizesCollections(t *testing.T) {
	doc, err := Decode(FormatJSON, []byte(`{"default_browser":"chrome","theme":"system"}`))
	require.NoError(t, err)

	assert.NotNil(t, doc.Browsers)
	assert.NotNil(t, doc.Sites)
	assert.NotNil(t, doc.Proxies)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFromPath("seed.yaml"))
	assert.Equal(t, FormatYAML, FormatFromPath("seed.YML"))
	assert.Equal(t, FormatTOML, FormatFromPath("/etc/launcher/seed.toml"))
	assert.Equal(t, FormatJSON, FormatFromPath("settings.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("settings"))
}

func TestDetectFormat(t *testing.T) {
	format, err := DetectFormat("backup.toml", []byte("anything"))
	require.NoError(t, err)
	assert.Equal(t, FormatTOML, format)

	format, err = DetectFormat("backup", []byte(`{"default_browser":"chrome"}`))
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, format)

	format, err = DetectFormat("backup.txt", []byte("default_browser: chrome\ntheme: dark\n"))
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, format)

	_, err = DetectFormat("backup", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d})
	assert.Error(t, err)
}

func TestReadBytesWithoutExtension(t *testing.T) {
	doc, err := ReadBytes("backup", []byte("default_browser: chrome\nsites: []\n"))
	require.NoError(t, err)
	assert.Equal(t, "chrome", doc.DefaultBrowser)
}

func TestReadBytesRejectsOversizedFiles(t *testing.T) {
	data := []byte(`{"default_browser":"` + strings.Repeat("x", 2<<20) + `"}`)
	_, err := ReadBytes("huge.json", data)
	assert.ErrorContains(t, err, "too large")
}

func TestProxyValidate(t *testing.T) {
	tests := []struct {
		name    string
		proxy   ProxyConfig
		wantErr error
	}{
		{"http ok", ProxyConfig{ProxyType: ProxyHTTP, Host: "h", Port: 8080}, nil},
		{"socks5 ok", ProxyConfig{ProxyType: ProxySOCKS5, Host: "h", Port: 1}, nil},
		{"pac ok", ProxyConfig{ProxyType: ProxyPAC, URL: StringPtr("http://x/p.pac")}, nil},
		{"unknown type", ProxyConfig{ProxyType: "ftp", Host: "h", Port: 21}, ErrUnknownProxyKind},
		{"pac without url", ProxyConfig{ProxyType: ProxyPAC}, ErrPACURLRequired},
		{"pac with port", ProxyConfig{ProxyType: ProxyPAC, URL: StringPtr("u"), Port: 80}, ErrPACHasEndpoint},
		{"missing host", ProxyConfig{ProxyType: ProxyHTTP, Port: 80}, ErrHostRequired},
		{"port zero", ProxyConfig{ProxyType: ProxyHTTP, Host: "h"}, ErrPortOutOfRange},
		{"port too large", ProxyConfig{ProxyType: ProxyHTTP, Host: "h", Port: 65536}, ErrPortOutOfRange},
		{"http with url", ProxyConfig{ProxyType: ProxyHTTP, Host: "h", Port: 80, URL: StringPtr("u")}, ErrURLNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.proxy.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEndpointRoundTrip(t *testing.T) {
	for _, proxy := range sampleDocument().Proxies {
		rebuilt := NewProxyConfig(proxy.ID, proxy.Name, proxy.Endpoint())
		assert.Equal(t, proxy, rebuilt, proxy.Name)
	}
}

func TestNewProxyConfigFlattensPAC(t *testing.T) {
	cfg := NewProxyConfig("9", "PAC", PACScript{URL: "http://example.com/proxy.pac"})

	assert.Equal(t, ProxyPAC, cfg.ProxyType)
	assert.Equal(t, "", cfg.Host)
	assert.Equal(t, 0, cfg.Port)
	assert.Equal(t, "http://example.com/proxy.pac", Deref(cfg.URL))
	assert.NoError(t, cfg.Validate())
}

func TestProxyAddress(t *testing.T) {
	doc := sampleDocument()

	assert.Equal(t, "127.0.0.1:8080", doc.Proxies[0].Address())
	assert.Equal(t, "http://example.com/proxy.pac", doc.Proxies[1].Address())
	assert.True(t, strings.HasSuffix(doc.Proxies[2].Address(), ":1080"))
}

func TestLookupFallbacks(t *testing.T) {
	doc := sampleDocument()
	doc.Sites = append(doc.Sites, SiteConfig{
		ID: "s3", Name: "Ghost", URL: "https://ghost.example.com",
		BrowserID: "opera", ProxyID: StringPtr("missing"),
	})

	lookup := NewLookup(doc)
	views := lookup.ResolveSites(doc.Sites)
	require.Len(t, views, 3)

	assert.Equal(t, "Google Chrome", views[0].BrowserName)
	assert.Equal(t, "Local", views[0].ProxyName)
	assert.False(t, views[0].DanglingBrowser)
	assert.False(t, views[0].DanglingProxy)

	assert.Equal(t, "Microsoft Edge", views[1].BrowserName)
	assert.Empty(t, views[1].ProxyName)
	assert.False(t, views[1].DanglingProxy)

	assert.Equal(t, UnknownBrowser, views[2].BrowserName)
	assert.Equal(t, UnknownProxy, views[2].ProxyName)
	assert.True(t, views[2].DanglingBrowser)
	assert.True(t, views[2].DanglingProxy)
}

func TestDeletingReferencedBrowserLeavesSiteIntact(t *testing.T) {
	doc := sampleDocument()
	before := doc.Sites[0]

	next := doc.Clone()
	next.Browsers = next.Browsers[1:] // drop chrome

	require.Equal(t, before, next.Sites[0])
	assert.Equal(t, "chrome", next.Sites[0].BrowserID)
	assert.Equal(t, UnknownBrowser, NewLookup(next).BrowserName("chrome"))
}

func TestLookupDetectedBrowsers(t *testing.T) {
	doc := Default()
	lookup := NewLookup(doc, Browser{ID: "firefox", Name: "Firefox"})

	assert.Equal(t, "Firefox", lookup.BrowserName("firefox"))
	_, ok := lookup.Proxy(NoRef)
	assert.False(t, ok)
}

func TestRefConversions(t *testing.T) {
	assert.Nil(t, NoRef.Ptr())
	assert.Equal(t, "7", *SomeRef("7").Ptr())
	assert.Equal(t, NoRef, RefFromPtr(nil))
	assert.Equal(t, SomeRef("7"), RefFromPtr(StringPtr("7")))
}

func TestThemeValid(t *testing.T) {
	assert.True(t, ThemeLight.Valid())
	assert.True(t, ThemeDark.Valid())
	assert.True(t, ThemeSystem.Valid())
	assert.False(t, Theme("solarized").Valid())
}
