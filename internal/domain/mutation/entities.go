package mutation

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/domain/forms"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/domain/settings"
)

// AddSite validates and maps the form, then appends the site with a new id
func (p *Pipeline) AddSite(ctx context.Context, f forms.SiteForm) (settings.SiteConfig, error) {
	if err := forms.ValidateSite(f); err != nil {
		return settings.SiteConfig{}, err
	}
	site := forms.MapSite(f)

	err := p.Update(ctx, "add_site", func(doc *settings.AppSettings) error {
		site.ID = p.newID()
		doc.Sites = append(doc.Sites, site)
		return nil
	})
	if err != nil {
		return settings.SiteConfig{}, err
	}
	return site, nil
}

// EditSite replaces the site with the given id, keeping the id
func (p *Pipeline) EditSite(ctx context.Context, siteID string, f forms.SiteForm) (settings.SiteConfig, error) {
	if err := forms.ValidateSite(f); err != nil {
		return settings.SiteConfig{}, err
	}
	site := forms.MapSite(f)
	site.ID = siteID

	err := p.Update(ctx, "edit_site", func(doc *settings.AppSettings) error {
		i := doc.FindSite(siteID)
		if i < 0 {
			return fmt.Errorf("site %s: %w", siteID, ErrNotFound)
		}
		doc.Sites[i] = site
		return nil
	})
	if err != nil {
		return settings.SiteConfig{}, err
	}
	return site, nil
}

// DeleteSite removes the site with the given id. Deleting an unknown id
// still saves the unchanged document.
func (p *Pipeline) DeleteSite(ctx context.Context, siteID string) error {
	return p.Update(ctx, "delete_site", func(doc *settings.AppSettings) error {
		kept := doc.Sites[:0]
		for _, s := range doc.Sites {
			if s.ID != siteID {
				kept = append(kept, s)
			}
		}
		doc.Sites = kept
		return nil
	})
}

// AddProxy validates and maps the form, then appends the proxy with a new id
func (p *Pipeline) AddProxy(ctx context.Context, f forms.ProxyForm) (settings.ProxyConfig, error) {
	if err := forms.ValidateProxy(f); err != nil {
		return settings.ProxyConfig{}, err
	}
	proxy := forms.MapProxy(f)

	err := p.Update(ctx, "add_proxy", func(doc *settings.AppSettings) error {
		proxy.ID = p.newID()
		doc.Proxies = append(doc.Proxies, proxy)
		return nil
	})
	if err != nil {
		return settings.ProxyConfig{}, err
	}
	return proxy, nil
}

// EditProxy replaces the proxy with the given id, keeping the id
func (p *Pipeline) EditProxy(ctx context.Context, proxyID string, f forms.ProxyForm) (settings.ProxyConfig, error) {
	if err := forms.ValidateProxy(f); err != nil {
		return settings.ProxyConfig{}, err
	}
	proxy := forms.MapProxy(f)
	proxy.ID = proxyID

	err := p.Update(ctx, "edit_proxy", func(doc *settings.AppSettings) error {
		i := doc.FindProxy(proxyID)
		if i < 0 {
			return fmt.Errorf("proxy %s: %w", proxyID, ErrNotFound)
		}
		doc.Proxies[i] = proxy
		return nil
	})
	if err != nil {
		return settings.ProxyConfig{}, err
	}
	return proxy, nil
}

// DeleteProxy removes the proxy. Sites referencing it keep their proxy id
// and resolve to the unknown-proxy label.
func (p *Pipeline) DeleteProxy(ctx context.Context, proxyID string) error {
	return p.Update(ctx, "delete_proxy", func(doc *settings.AppSettings) error {
		kept := doc.Proxies[:0]
		for _, px := range doc.Proxies {
			if px.ID != proxyID {
				kept = append(kept, px)
			}
		}
		doc.Proxies = kept
		return nil
	})
}
