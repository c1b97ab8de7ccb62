package settings

// Theme is the UI color scheme preference
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Valid reports whether t is one of the known themes
func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	}
	return false
}

// Browser is a browser installation known to the host
type Browser struct {
	ID   string `json:"id" yaml:"id" toml:"id"`
	Name string `json:"name" yaml:"name" toml:"name"`
	Path string `json:"path" yaml:"path" toml:"path"`
}

// ProxyConfig is the persisted, flat shape of a proxy profile.
// Use Kind/Endpoint for the typed view.
type ProxyConfig struct {
	ID        string    `json:"id" yaml:"id" toml:"id"`
	Name      string    `json:"name" yaml:"name" toml:"name"`
	ProxyType ProxyKind `json:"proxy_type" yaml:"proxy_type" toml:"proxy_type"`
	Host      string    `json:"host" yaml:"host" toml:"host"`
	Port      int       `json:"port" yaml:"port" toml:"port"`
	Username  *string   `json:"username,omitempty" yaml:"username,omitempty" toml:"username,omitempty"`
	Password  *string   `json:"password,omitempty" yaml:"password,omitempty" toml:"password,omitempty"`
	URL       *string   `json:"url,omitempty" yaml:"url,omitempty" toml:"url,omitempty"`
}

// SiteConfig binds a URL to a browser and optionally a proxy.
// BrowserID and ProxyID are soft references; see Lookup.
type SiteConfig struct {
	ID        string  `json:"id" yaml:"id" toml:"id"`
	Name      string  `json:"name" yaml:"name" toml:"name"`
	URL       string  `json:"url" yaml:"url" toml:"url"`
	BrowserID string  `json:"browser_id" yaml:"browser_id" toml:"browser_id"`
	ProxyID   *string `json:"proxy_id,omitempty" yaml:"proxy_id,omitempty" toml:"proxy_id,omitempty"`
}

// AppSettings is the aggregate root and the unit of persistence
type AppSettings struct {
	DefaultBrowser   string        `json:"default_browser" yaml:"default_browser" toml:"default_browser"`
	DefaultLaunchURL string        `json:"default_launch_url" yaml:"default_launch_url" toml:"default_launch_url"`
	Theme            Theme         `json:"theme" yaml:"theme" toml:"theme"`
	LaunchOnStartup  bool          `json:"launch_on_startup" yaml:"launch_on_startup" toml:"launch_on_startup"`
	IgnoreCertErrors bool          `json:"ignore_cert_errors" yaml:"ignore_cert_errors" toml:"ignore_cert_errors"`
	Browsers         []Browser     `json:"browsers" yaml:"browsers" toml:"browsers"`
	Sites            []SiteConfig  `json:"sites" yaml:"sites" toml:"sites"`
	Proxies          []ProxyConfig `json:"proxies" yaml:"proxies" toml:"proxies"`
}

// Default returns the document a host creates on first run
func Default() *AppSettings {
	return &AppSettings{
		DefaultBrowser: "chrome",
		Theme:          ThemeSystem,
		Browsers:       []Browser{},
		Sites:          []SiteConfig{},
		Proxies:        []ProxyConfig{},
	}
}

// Clone returns a deep copy. Cached documents are shared by reference and
// must never be modified; every mutation starts from a clone.
func (s *AppSettings) Clone() *AppSettings {
	if s == nil {
		return nil
	}

	out := *s
	out.Browsers = append(make([]Browser, 0, len(s.Browsers)), s.Browsers...)

	out.Sites = make([]SiteConfig, len(s.Sites))
	for i, site := range s.Sites {
		site.ProxyID = cloneString(site.ProxyID)
		out.Sites[i] = site
	}

	out.Proxies = make([]ProxyConfig, len(s.Proxies))
	for i, proxy := range s.Proxies {
		out.Proxies[i] = proxy.Clone()
	}

	return &out
}

// Normalize replaces nil collections with empty ones so the document
// always serializes collections as arrays, never null.
func (s *AppSettings) Normalize() *AppSettings {
	if s.Browsers == nil {
		s.Browsers = []Browser{}
	}
	if s.Sites == nil {
		s.Sites = []SiteConfig{}
	}
	if s.Proxies == nil {
		s.Proxies = []ProxyConfig{}
	}
	return s
}

// Clone returns a deep copy of the proxy
func (p ProxyConfig) Clone() ProxyConfig {
	p.Username = cloneString(p.Username)
	p.Password = cloneString(p.Password)
	p.URL = cloneString(p.URL)
	return p
}

// FindSite returns the index of the site with the given id, or -1
func (s *AppSettings) FindSite(id string) int {
	for i := range s.Sites {
		if s.Sites[i].ID == id {
			return i
		}
	}
	return -1
}

// FindProxy returns the index of the proxy with the given id, or -1
func (s *AppSettings) FindProxy(id string) int {
	for i := range s.Proxies {
		if s.Proxies[i].ID == id {
			return i
		}
	}
	return -1
}

// FindBrowser returns the index of the browser with the given id, or -1
func (s *AppSettings) FindBrowser(id string) int {
	for i := range s.Browsers {
		if s.Browsers[i].ID == id {
			return i
		}
	}
	return -1
}

// StringPtr returns a pointer to v
func StringPtr(v string) *string {
	return &v
}

// Deref returns the pointed-to string or ""
func Deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
