package engine

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/domain/forms"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/domain/mutation"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/domain/settings"
)

// BrowserRow is one line of the browsers page
type BrowserRow struct {
	settings.Browser
	Detected bool `json:"detected"`
	Saved    bool `json:"saved"`
}

// SiteRows lists sites with their browser and proxy labels resolved
func (e *Engine) SiteRows(ctx context.Context) ([]settings.SiteView, error) {
	doc, err := e.document(ctx)
	if err != nil {
		return nil, err
	}
	detected, _ := e.browsers.Peek()
	return settings.NewLookup(doc, detected...).ResolveSites(doc.Sites), nil
}

// Proxies lists the configured proxies
func (e *Engine) Proxies(ctx context.Context) ([]settings.ProxyConfig, error) {
	doc, err := e.document(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Clone().Proxies, nil
}

// BrowserRows merges detected browsers with the saved ones. A saved path
// overrides the detected one; saved browsers that are no longer detected
// are listed after the detected ones.
func (e *Engine) BrowserRows(ctx context.Context) ([]BrowserRow, error) {
	doc, err := e.document(ctx)
	if err != nil {
		return nil, err
	}
	detected, err := e.browsers.Get(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]BrowserRow, 0, len(detected)+len(doc.Browsers))
	seen := make(map[string]bool, len(detected))
	for _, b := range detected {
		row := BrowserRow{Browser: b, Detected: true}
		if i := doc.FindBrowser(b.ID); i >= 0 {
			row.Path = doc.Browsers[i].Path
			row.Saved = true
		}
		seen[b.ID] = true
		rows = append(rows, row)
	}
	for _, b := range doc.Browsers {
		if !seen[b.ID] {
			rows = append(rows, BrowserRow{Browser: b, Saved: true})
		}
	}
	return rows, nil
}

// SettingsPath returns where the host stores the document, "" when unknown
func (e *Engine) SettingsPath(ctx context.Context) string {
	path, err := e.settingsPath.Get(ctx)
	if err != nil {
		return ""
	}
	return path
}

// Preferences prefills the settings page
func (e *Engine) Preferences(ctx context.Context) (forms.PreferencesForm, error) {
	doc, err := e.document(ctx)
	if err != nil {
		return forms.PreferencesForm{}, err
	}
	return forms.PreferencesFormFrom(doc), nil
}

// SiteForm returns the add dialog defaults for an empty id, else the
// edit dialog prefilled from the stored site
func (e *Engine) SiteForm(ctx context.Context, siteID string) (forms.SiteForm, error) {
	doc, err := e.document(ctx)
	if err != nil {
		return forms.SiteForm{}, err
	}
	if siteID == "" {
		return forms.NewSiteForm(doc), nil
	}
	i := doc.FindSite(siteID)
	if i < 0 {
		return forms.SiteForm{}, fmt.Errorf("site %s: %w", siteID, mutation.ErrNotFound)
	}
	return forms.SiteFormFrom(doc.Sites[i]), nil
}

// ProxyForm returns the add dialog defaults for an empty id, else the
// edit dialog prefilled from the stored proxy
func (e *Engine) ProxyForm(ctx context.Context, proxyID string) (forms.ProxyForm, error) {
	if proxyID == "" {
		return forms.NewProxyForm(), nil
	}
	doc, err := e.document(ctx)
	if err != nil {
		return forms.ProxyForm{}, err
	}
	i := doc.FindProxy(proxyID)
	if i < 0 {
		return forms.ProxyForm{}, fmt.Errorf("proxy %s: %w", proxyID, mutation.ErrNotFound)
	}
	return forms.ProxyFormFrom(doc.Proxies[i]), nil
}

// document reads the settings for display. A stale document is refetched
// first so a view rendered right after a save shows that save.
func (e *Engine) document(ctx context.Context) (*settings.AppSettings, error) {
	if _, state := e.settings.Peek(); state.HasData() && state.Stale {
		return e.settings.Fetch(ctx)
	}
	return e.settings.Get(ctx)
}
