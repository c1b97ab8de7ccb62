package settings

// Fallback labels for dangling references
const (
	UnknownBrowser = "Unknown Browser"
	UnknownProxy   = "Unknown Proxy"
)

// Ref is a soft reference: an id that may or may not resolve
type Ref struct {
	ID    string
	Valid bool
}

// SomeRef returns a present reference
func SomeRef(id string) Ref { return Ref{ID: id, Valid: true} }

// NoRef is the absent reference
var NoRef = Ref{}

// RefFromPtr converts an optional wire field into a Ref
func RefFromPtr(id *string) Ref {
	if id == nil {
		return NoRef
	}
	return SomeRef(*id)
}

// Ptr converts the reference back to its optional wire field
func (r Ref) Ptr() *string {
	if !r.Valid {
		return nil
	}
	return StringPtr(r.ID)
}

// Lookup resolves soft references against one document. References are
// never checked at write time; a dangling id resolves to a fallback label.
type Lookup struct {
	browsers map[string]Browser
	proxies  map[string]ProxyConfig
}

// NewLookup indexes the browsers and proxies of a document. Extra browsers
// (e.g. freshly detected ones not yet persisted) may be supplied; entries in
// the document win.
func NewLookup(doc *AppSettings, detected ...Browser) *Lookup {
	l := &Lookup{
		browsers: make(map[string]Browser),
		proxies:  make(map[string]ProxyConfig),
	}
	for _, b := range detected {
		l.browsers[b.ID] = b
	}
	if doc == nil {
		return l
	}
	for _, b := range doc.Browsers {
		l.browsers[b.ID] = b
	}
	for _, p := range doc.Proxies {
		l.proxies[p.ID] = p
	}
	return l
}

// Browser resolves a browser id
func (l *Lookup) Browser(id string) (Browser, bool) {
	b, ok := l.browsers[id]
	return b, ok
}

// Proxy resolves a proxy reference
func (l *Lookup) Proxy(ref Ref) (ProxyConfig, bool) {
	if !ref.Valid {
		return ProxyConfig{}, false
	}
	p, ok := l.proxies[ref.ID]
	return p, ok
}

// BrowserName returns the display name for a browser id
func (l *Lookup) BrowserName(id string) string {
	if b, ok := l.browsers[id]; ok {
		return b.Name
	}
	return UnknownBrowser
}

// ProxyName returns the display name for a proxy reference and whether a
// proxy is referenced at all. An absent reference yields ("", false).
func (l *Lookup) ProxyName(ref Ref) (string, bool) {
	if !ref.Valid {
		return "", false
	}
	if p, ok := l.proxies[ref.ID]; ok {
		return p.Name, true
	}
	return UnknownProxy, true
}

// SiteView is a site with its references resolved for display
type SiteView struct {
	SiteConfig
	BrowserName     string `json:"browser_name"`
	ProxyName       string `json:"proxy_name,omitempty"`
	DanglingBrowser bool   `json:"dangling_browser,omitempty"`
	DanglingProxy   bool   `json:"dangling_proxy,omitempty"`
}

// ResolveSite resolves the references of a single site
func (l *Lookup) ResolveSite(site SiteConfig) SiteView {
	_, browserFound := l.browsers[site.BrowserID]
	view := SiteView{
		SiteConfig:      site,
		BrowserName:     l.BrowserName(site.BrowserID),
		DanglingBrowser: !browserFound,
	}

	ref := RefFromPtr(site.ProxyID)
	if name, ok := l.ProxyName(ref); ok {
		view.ProxyName = name
		_, found := l.proxies[ref.ID]
		view.DanglingProxy = !found
	}
	return view
}

// ResolveSites resolves every site of the document in order
func (l *Lookup) ResolveSites(sites []SiteConfig) []SiteView {
	views := make([]SiteView, 0, len(sites))
	for _, site := range sites {
		views = append(views, l.ResolveSite(site))
	}
	return views
}
