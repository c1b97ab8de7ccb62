package mutation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/bridge"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/bridge/memory"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/domain/forms"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/domain/settings"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/query"
)

type harness struct {
	pipeline *Pipeline
	host     *memory.Host
	client   *bridge.Client
	docs     query.Query[*settings.AppSettings]
	metrics  *monitoring.Metrics
}

func startingDoc() *settings.AppSettings {
	doc := settings.Default()
	doc.Browsers = []settings.Browser{{ID: "chrome", Name: "Google Chrome", Path: "/usr/bin/google-chrome"}}
	doc.Proxies = []settings.ProxyConfig{{ID: "1", Name: "Local", ProxyType: settings.ProxyHTTP, Host: "127.0.0.1", Port: 8080}}
	return doc
}

func newHarness(t *testing.T, doc *settings.AppSettings, hostOpts ...memory.Option) *harness {
	t.Helper()

	host := memory.New(append([]memory.Option{memory.WithDocument(doc)}, hostOpts...)...)
	metrics := monitoring.NewMetrics()
	client := bridge.NewClient(host, zap.NewNop(), metrics)

	cache := query.New()
	t.Cleanup(cache.Close)

	opts := query.DefaultOptions()
	opts.RetryDelay = time.Millisecond
	docs := query.Define(cache, query.KeySettings, opts, client.LoadSettings)
	browsers := query.Define(cache, query.KeyBrowsers, opts, func(ctx context.Context) ([]settings.Browser, error) {
		return client.DetectBrowsers(ctx), nil
	})

	var seq atomic.Int32
	p := New(client, docs,
		WithMetrics(metrics),
		WithBrowsers(browsers),
		WithIDs(func() string { return fmt.Sprintf("id-%d", seq.Add(1)) }),
	)
	return &harness{pipeline: p, host: host, client: client, docs: docs, metrics: metrics}
}

func googleForm() forms.SiteForm {
	return forms.SiteForm{Name: "Google", URL: "https://www.google.com", BrowserID: "chrome", ProxyID: "1"}
}

func TestRoundTripLaw(t *testing.T) {
	doc := startingDoc()
	doc.Sites = []settings.SiteConfig{{ID: "s1", Name: "Docs", URL: "https://docs.example.com", BrowserID: "chrome"}}
	h := newHarness(t, doc)
	ctx := context.Background()

	loaded, err := h.client.LoadSettings(ctx)
	require.NoError(t, err)
	require.NoError(t, h.pipeline.Mutate(ctx, loaded))

	reloaded, err := h.client.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, loaded, reloaded)
	assert.Equal(t, doc, reloaded)
}

func TestAddSiteGoogleExample(t *testing.T) {
	h := newHarness(t, startingDoc())
	ctx := context.Background()

	site, err := h.pipeline.AddSite(ctx, googleForm())
	require.NoError(t, err)
	assert.Equal(t, "id-1", site.ID)

	stored := h.host.Document()
	require.Len(t, stored.Sites, 1)
	assert.Equal(t, "Google", stored.Sites[0].Name)
	assert.Equal(t, "1", settings.Deref(stored.Sites[0].ProxyID))
	assert.Equal(t, uint64(1), h.pipeline.Revision())

	snap, err := h.pipeline.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Doc.Sites, 1, "the next read comes from the refetched document")
	assert.Equal(t, uint64(1), snap.Revision)
}

func TestAddProxyPACExample(t *testing.T) {
	h := newHarness(t, startingDoc())

	proxy, err := h.pipeline.AddProxy(context.Background(), forms.ProxyForm{
		Name: "Corp PAC",
		Type: settings.ProxyPAC,
		URL:  "http://example.com/proxy.pac",
	})
	require.NoError(t, err)

	stored := h.host.Document()
	i := stored.FindProxy(proxy.ID)
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, "", stored.Proxies[i].Host)
	assert.Equal(t, 0, stored.Proxies[i].Port)
	assert.Equal(t, "http://example.com/proxy.pac", settings.Deref(stored.Proxies[i].URL))
}

// Regression: cloning the cached document twice before either save lands
// loses the first addition.
func TestNaiveCloneAndSaveLosesUpdate(t *testing.T) {
	h := newHarness(t, startingDoc())
	ctx := context.Background()

	cached, err := h.docs.Fetch(ctx)
	require.NoError(t, err)

	first := cached.Clone()
	first.Sites = append(first.Sites, settings.SiteConfig{ID: "a", Name: "A", URL: "https://a.example.com", BrowserID: "chrome"})
	second := cached.Clone()
	second.Sites = append(second.Sites, settings.SiteConfig{ID: "b", Name: "B", URL: "https://b.example.com", BrowserID: "chrome"})

	require.NoError(t, h.client.SaveSettings(ctx, first))
	require.NoError(t, h.client.SaveSettings(ctx, second))

	stored := h.host.Document()
	require.Len(t, stored.Sites, 1)
	assert.Equal(t, "b", stored.Sites[0].ID)
}

func TestConcurrentAddsBothSurvive(t *testing.T) {
	h := newHarness(t, startingDoc())
	ctx := context.Background()

	// prime the cache so both adds would clone the same document
	_, err := h.pipeline.Snapshot(ctx)
	require.NoError(t, err)

	entered := make(chan struct{}, 2)
	release := make(chan struct{})
	h.host.OnSave(func(context.Context, *settings.AppSettings) error {
		entered <- struct{}{}
		<-release
		return nil
	})

	var wg sync.WaitGroup
	add := func(name string) {
		defer wg.Done()
		_, err := h.pipeline.AddSite(ctx, forms.SiteForm{
			Name: name, URL: "https://" + name + ".example.com", BrowserID: "chrome", ProxyID: forms.NoProxy,
		})
		assert.NoError(t, err)
	}

	wg.Add(1)
	go add("first")
	<-entered

	wg.Add(1)
	go add("second")
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	stored := h.host.Document()
	require.Len(t, stored.Sites, 2)
	names := []string{stored.Sites[0].Name, stored.Sites[1].Name}
	assert.ElementsMatch(t, []string{"first", "second"}, names)
	assert.NotEqual(t, stored.Sites[0].ID, stored.Sites[1].ID)
	assert.Equal(t, uint64(2), h.pipeline.Revision())
}

func TestReplaceDetectsConflict(t *testing.T) {
	h := newHarness(t, startingDoc())
	ctx := context.Background()

	a, err := h.pipeline.Snapshot(ctx)
	require.NoError(t, err)
	b, err := h.pipeline.Snapshot(ctx)
	require.NoError(t, err)

	a.Doc.Sites = append(a.Doc.Sites, settings.SiteConfig{ID: "a", Name: "A", URL: "https://a.example.com", BrowserID: "chrome"})
	require.NoError(t, h.pipeline.Replace(ctx, a.Revision, a.Doc))

	b.Doc.Sites = append(b.Doc.Sites, settings.SiteConfig{ID: "b", Name: "B", URL: "https://b.example.com", BrowserID: "chrome"})
	err = h.pipeline.Replace(ctx, b.Revision, b.Doc)
	require.ErrorIs(t, err, ErrConflict)
	assert.Len(t, h.host.Document().Sites, 1)

	// retry on a fresh snapshot keeps both
	fresh, err := h.pipeline.Snapshot(ctx)
	require.NoError(t, err)
	fresh.Doc.Sites = append(fresh.Doc.Sites, b.Doc.Sites[len(b.Doc.Sites)-1])
	require.NoError(t, h.pipeline.Replace(ctx, fresh.Revision, fresh.Doc))
	assert.Len(t, h.host.Document().Sites, 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(
		h.metrics.OperationErrors.WithLabelValues(monitoring.ComponentMutation, "replace", monitoring.ErrorConflict)))
}

func TestSaveFailureLeavesCacheUntouched(t *testing.T) {
	h := newHarness(t, startingDoc())
	ctx := context.Background()

	before, err := h.pipeline.Snapshot(ctx)
	require.NoError(t, err)
	_, s0 := h.docs.Peek()

	diskFull := errors.New("disk full")
	h.host.FailN(bridge.CmdSaveSettings, 1, diskFull)

	_, err = h.pipeline.AddSite(ctx, googleForm())
	var saveErr *SaveError
	require.ErrorAs(t, err, &saveErr)
	assert.Equal(t, "add_site", saveErr.Op)
	assert.ErrorIs(t, err, diskFull)

	_, s1 := h.docs.Peek()
	assert.Equal(t, s0.Revision, s1.Revision)
	assert.False(t, s1.Stale)
	assert.Equal(t, uint64(0), h.pipeline.Revision())
	assert.Equal(t, before.Doc, h.host.Document())

	// no automatic retry; resubmitting succeeds
	assert.Equal(t, 1, h.host.Calls(bridge.CmdSaveSettings))
	_, err = h.pipeline.AddSite(ctx, googleForm())
	require.NoError(t, err)
	assert.Len(t, h.host.Document().Sites, 1)
}

func TestEditSite(t *testing.T) {
	h := newHarness(t, startingDoc())
	ctx := context.Background()

	site, err := h.pipeline.AddSite(ctx, googleForm())
	require.NoError(t, err)

	edited, err := h.pipeline.EditSite(ctx, site.ID, forms.SiteForm{
		Name: "Google Search", URL: "https://google.com/search", BrowserID: "chrome", ProxyID: forms.NoProxy,
	})
	require.NoError(t, err)
	assert.Equal(t, site.ID, edited.ID)
	assert.Nil(t, edited.ProxyID)

	stored := h.host.Document()
	require.Len(t, stored.Sites, 1)
	assert.Equal(t, "Google Search", stored.Sites[0].Name)
	assert.Nil(t, stored.Sites[0].ProxyID)
}

func TestEditMissingIsNotFound(t *testing.T) {
	h := newHarness(t, startingDoc())
	ctx := context.Background()

	_, err := h.pipeline.EditSite(ctx, "nope", googleForm())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = h.pipeline.EditProxy(ctx, "nope", forms.ProxyForm{Name: "x", Type: settings.ProxyHTTP, Host: "h", Port: 1})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Zero(t, h.host.Calls(bridge.CmdSaveSettings))
}

func TestDeleteMissingStillSaves(t *testing.T) {
	h := newHarness(t, startingDoc())

	require.NoError(t, h.pipeline.DeleteSite(context.Background(), "nope"))
	assert.Equal(t, 1, h.host.Calls(bridge.CmdSaveSettings))
	assert.Equal(t, startingDoc(), h.host.Document())
}

func TestDeleteProxyKeepsReferencingSite(t *testing.T) {
	h := newHarness(t, startingDoc())
	ctx := context.Background()

	_, err := h.pipeline.AddSite(ctx, googleForm())
	require.NoError(t, err)
	require.NoError(t, h.pipeline.DeleteProxy(ctx, "1"))

	stored := h.host.Document()
	assert.Empty(t, stored.Proxies)
	require.Len(t, stored.Sites, 1)
	assert.Equal(t, "1", settings.Deref(stored.Sites[0].ProxyID))

	view := settings.NewLookup(stored).ResolveSite(stored.Sites[0])
	assert.True(t, view.DanglingProxy)
	assert.Equal(t, settings.UnknownProxy, view.ProxyName)
}

func TestEditProxy(t *testing.T) {
	h := newHarness(t, startingDoc())
	ctx := context.Background()

	edited, err := h.pipeline.EditProxy(ctx, "1", forms.ProxyForm{
		Name: "Tunnel", Type: settings.ProxySOCKS5, Host: "10.0.0.2", Username: "me",
	})
	require.NoError(t, err)
	assert.Equal(t, "1", edited.ID)
	assert.Equal(t, forms.DefaultProxyPort, edited.Port)

	stored := h.host.Document()
	require.Len(t, stored.Proxies, 1)
	assert.Equal(t, settings.ProxySOCKS5, stored.Proxies[0].ProxyType)
	assert.Equal(t, "me", settings.Deref(stored.Proxies[0].Username))
	assert.Nil(t, stored.Proxies[0].Password)
}

func TestValidationFailsBeforeSave(t *testing.T) {
	h := newHarness(t, startingDoc())

	_, err := h.pipeline.AddProxy(context.Background(), forms.ProxyForm{Name: "broken", Type: settings.ProxyHTTP})
	var invalid *forms.ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Fields, "host")
	assert.Zero(t, h.host.Calls(bridge.CmdSaveSettings))
}

func TestMutateWithoutDocument(t *testing.T) {
	h := newHarness(t, startingDoc())

	err := h.pipeline.Mutate(context.Background(), nil)
	var saveErr *SaveError
	require.ErrorAs(t, err, &saveErr)
	assert.Zero(t, h.host.Calls(bridge.CmdSaveSettings))
}

func TestLoadFailureSurfaces(t *testing.T) {
	h := newHarness(t, startingDoc())
	h.host.Fail(bridge.CmdLoadSettings, errors.New("unreadable"))

	_, err := h.pipeline.AddSite(context.Background(), googleForm())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load settings")
	assert.Zero(t, h.host.Calls(bridge.CmdSaveSettings))
}

func TestInvalidationNotifiesSubscribers(t *testing.T) {
	h := newHarness(t, startingDoc())
	ctx := context.Background()

	var latest atomic.Int32
	unsubscribe := h.docs.Subscribe(func(s query.State) {
		if doc, ok := s.Data.(*settings.AppSettings); ok && s.Status == query.StatusSuccess {
			latest.Store(int32(len(doc.Sites)))
		}
	})
	defer unsubscribe()

	_, err := h.pipeline.Snapshot(ctx)
	require.NoError(t, err)
	_, err = h.pipeline.AddSite(ctx, googleForm())
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return latest.Load() == 1 }, time.Second, time.Millisecond)
}

func TestDefaultIDsIncrease(t *testing.T) {
	host := memory.New(memory.WithDocument(startingDoc()))
	client := bridge.NewClient(host, nil, nil)
	cache := query.New()
	t.Cleanup(cache.Close)
	docs := query.Define(cache, query.KeySettings, query.DefaultOptions(), client.LoadSettings)
	p := New(client, docs)
	ctx := context.Background()

	a, err := p.AddSite(ctx, googleForm())
	require.NoError(t, err)
	b, err := p.AddSite(ctx, googleForm())
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.Less(t, a.ID, b.ID)
}

func TestOperationsAreTraced(t *testing.T) {
	host := memory.New(memory.WithDocument(startingDoc()))
	client := bridge.NewClient(host, nil, nil)
	cache := query.New()
	t.Cleanup(cache.Close)
	docs := query.Define(cache, query.KeySettings, query.DefaultOptions(), client.LoadSettings)
	tracer := tracing.New("test", zap.NewNop())
	p := New(client, docs, WithTracer(tracer))

	require.NoError(t, p.DeleteSite(context.Background(), "nope"))
	tracer.Close()

	spans := tracer.Recent()
	require.Len(t, spans, 1)
	assert.Equal(t, "mutation.delete_site", spans[0].Name)
	assert.Equal(t, "1", spans[0].Tags["revision"])
}
