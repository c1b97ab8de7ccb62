package mutation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/domain/forms"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/domain/settings"
)

// ExportFileName is the name suggested by the save dialog
const ExportFileName = "browser-proxy-settings.json"

// ImportFilters restricts the open dialog to exported documents
var ImportFilters = []string{"json"}

// UpdatePreferences saves the settings page fields, keeping the collections
func (p *Pipeline) UpdatePreferences(ctx context.Context, f forms.PreferencesForm) (*settings.AppSettings, error) {
	if err := forms.ValidatePreferences(f); err != nil {
		return nil, err
	}

	var saved *settings.AppSettings
	err := p.Update(ctx, "update_preferences", func(doc *settings.AppSettings) error {
		forms.ApplyPreferences(doc, f)
		saved = doc.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// SetBrowserPath persists a new executable path for a browser. A browser
// that was detected but never saved is added to the document.
func (p *Pipeline) SetBrowserPath(ctx context.Context, browserID, path string) (settings.Browser, error) {
	var detected []settings.Browser
	var updated settings.Browser

	err := p.Update(ctx, "set_browser_path", func(doc *settings.AppSettings) error {
		if i := doc.FindBrowser(browserID); i >= 0 {
			doc.Browsers[i].Path = path
			updated = doc.Browsers[i]
			return nil
		}

		if detected == nil {
			detected = p.client.DetectBrowsers(ctx)
		}
		for _, b := range detected {
			if b.ID == browserID {
				b.Path = path
				doc.Browsers = append(doc.Browsers, b)
				updated = b
				return nil
			}
		}
		return fmt.Errorf("browser %s: %w", browserID, ErrNotFound)
	})
	if err != nil {
		return settings.Browser{}, err
	}
	return updated, nil
}

// BrowseBrowserPath asks the user for an executable and persists it.
// It reports false when the user cancelled.
func (p *Pipeline) BrowseBrowserPath(ctx context.Context, browserID string) (settings.Browser, bool, error) {
	path, ok := p.client.BrowseForBrowser(ctx)
	if !ok {
		return settings.Browser{}, false, nil
	}
	b, err := p.SetBrowserPath(ctx, browserID, path)
	if err != nil {
		return settings.Browser{}, false, err
	}
	return b, true, nil
}

// ExportSettings asks for a destination and exports the persisted document.
// It reports false when the user cancelled.
func (p *Pipeline) ExportSettings(ctx context.Context) (string, bool, error) {
	path, ok := p.client.BrowseSaveFile(ctx, ExportFileName)
	if !ok {
		return "", false, nil
	}
	if err := p.ExportSettingsTo(ctx, path); err != nil {
		return "", false, err
	}
	return path, true, nil
}

// ExportSettingsTo exports the persisted document to path
func (p *Pipeline) ExportSettingsTo(ctx context.Context, path string) error {
	// export reads what the host persisted; it must not interleave with a save
	return p.run(ctx, "export", func(ctx context.Context) error {
		if err := p.client.ExportSettings(ctx, path); err != nil {
			return fmt.Errorf("failed to export settings: %w", err)
		}
		p.logger.Info("Settings exported", zap.String("path", path))
		return nil
	})
}

// ImportSettings asks for a source file and imports it.
// It reports false when the user cancelled.
func (p *Pipeline) ImportSettings(ctx context.Context) (*settings.AppSettings, bool, error) {
	path, ok := p.client.BrowseOpenFile(ctx, ImportFilters)
	if !ok {
		return nil, false, nil
	}
	doc, err := p.ImportSettingsFrom(ctx, path)
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

// ImportSettingsFrom has the host import and persist the document at path,
// then invalidates settings and the browser list.
func (p *Pipeline) ImportSettingsFrom(ctx context.Context, path string) (*settings.AppSettings, error) {
	var imported *settings.AppSettings
	err := p.run(ctx, "import", func(ctx context.Context) error {
		doc, err := p.client.ImportSettings(ctx, path)
		if err != nil {
			return &SaveError{Op: "import", Err: err}
		}
		imported = doc.Clone()

		p.revision++
		p.docs.Invalidate()
		if p.browsers != nil {
			p.browsers.Invalidate()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return imported, nil
}
