package mutation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/bridge"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/domain/forms"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/domain/settings"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/query"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/shared/id"
)

var (
	// ErrConflict means the document changed since the caller's snapshot
	ErrConflict = errors.New("settings changed since they were read")
	// ErrNotFound means the targeted site, proxy or browser does not exist
	ErrNotFound = errors.New("not found")
)

// SaveError is a failed full-document save. The cache keeps its last good value.
type SaveError struct {
	Op  string
	Err error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("failed to save settings (%s): %v", e.Op, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// Snapshot is a private copy of the document and the revision it was read at
type Snapshot struct {
	Doc      *settings.AppSettings `json:"settings"`
	Revision uint64                `json:"revision"`
}

// Pipeline is the only writer of the settings document. Mutations are
// serialized: each one reads the current document, builds the next one
// and saves it whole before the next mutation starts. A successful save
// invalidates the settings key; a failed one leaves the cache alone.
type Pipeline struct {
	mu       sync.Mutex
	revision uint64

	client   *bridge.Client
	docs     query.Query[*settings.AppSettings]
	browsers *query.Query[[]settings.Browser]
	newID    func() string

	logger  *zap.Logger
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithMetrics enables operation metrics
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(p *Pipeline) { p.metrics = metrics }
}

// WithTracer wraps every operation in a span
func WithTracer(tracer *tracing.Tracer) Option {
	return func(p *Pipeline) { p.tracer = tracer }
}

// WithIDs overrides the id generator for new sites and proxies
func WithIDs(newID func() string) Option {
	return func(p *Pipeline) { p.newID = newID }
}

// WithBrowsers lets imports refresh the detected browser list
func WithBrowsers(q query.Query[[]settings.Browser]) Option {
	return func(p *Pipeline) { p.browsers = &q }
}

// New creates a pipeline writing through client and invalidating docs
func New(client *bridge.Client, docs query.Query[*settings.AppSettings], opts ...Option) *Pipeline {
	p := &Pipeline{
		client: client,
		docs:   docs,
		newID:  id.NewEntityID,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Revision returns the number of saves made through this pipeline
func (p *Pipeline) Revision() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.revision
}

// Snapshot returns a private copy of the current document with its revision
func (p *Pipeline) Snapshot(ctx context.Context) (Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	doc, err := p.current(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Doc: doc.Clone(), Revision: p.revision}, nil
}

// Mutate saves next as the whole document
func (p *Pipeline) Mutate(ctx context.Context, next *settings.AppSettings) error {
	return p.run(ctx, "replace", func(ctx context.Context) error {
		return p.save(ctx, "replace", next.Clone())
	})
}

// Replace saves next only if no save happened since baseRevision was read
func (p *Pipeline) Replace(ctx context.Context, baseRevision uint64, next *settings.AppSettings) error {
	return p.run(ctx, "replace", func(ctx context.Context) error {
		if baseRevision != p.revision {
			return fmt.Errorf("%w: read at revision %d, now %d", ErrConflict, baseRevision, p.revision)
		}
		return p.save(ctx, "replace", next.Clone())
	})
}

// Update applies fn to a private copy of the current document and saves
// the result. An error from fn aborts without saving.
func (p *Pipeline) Update(ctx context.Context, op string, fn func(doc *settings.AppSettings) error) error {
	return p.run(ctx, op, func(ctx context.Context) error {
		return p.update(ctx, op, fn)
	})
}

// update is Update without locking; callers hold p.mu
func (p *Pipeline) update(ctx context.Context, op string, fn func(doc *settings.AppSettings) error) error {
	cur, err := p.current(ctx)
	if err != nil {
		return err
	}
	next := cur.Clone()
	if err := fn(next); err != nil {
		return err
	}
	return p.save(ctx, op, next)
}

// run serializes, times, traces and logs one operation
func (p *Pipeline) run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	timer := monitoring.NewTimer(p.metrics, monitoring.ComponentMutation, op)
	err := p.tracer.Do(ctx, "mutation."+op, func(ctx context.Context, span *tracing.Span) error {
		err := fn(ctx)
		span.SetTag("revision", fmt.Sprint(p.revision))
		return err
	})

	if err != nil {
		timer.Stop(monitoring.StatusError)
		p.metrics.RecordOperationError(monitoring.ComponentMutation, op, errorType(err))
		p.logger.Warn("Mutation failed", zap.String("op", op), zap.Error(err))
		return err
	}

	duration := timer.Stop(monitoring.StatusSuccess)
	p.logger.Info("Mutation saved",
		zap.String("op", op),
		zap.Uint64("revision", p.revision),
		zap.Duration("duration", duration))
	return nil
}

// current returns the cached document when fresh, otherwise refetches.
// The result is shared; callers clone before modifying.
func (p *Pipeline) current(ctx context.Context) (*settings.AppSettings, error) {
	doc, state := p.docs.Peek()
	if state.HasData() && !state.Stale && doc != nil {
		return doc, nil
	}

	doc, err := p.docs.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("failed to load settings: %w", bridge.ErrEmptyDocument)
	}
	return doc, nil
}

// save submits the whole document, then invalidates the settings key
func (p *Pipeline) save(ctx context.Context, op string, next *settings.AppSettings) error {
	if next == nil {
		return &SaveError{Op: op, Err: bridge.ErrEmptyDocument}
	}
	next.Normalize()

	if err := p.client.SaveSettings(ctx, next); err != nil {
		return &SaveError{Op: op, Err: err}
	}

	p.revision++
	p.docs.Invalidate()
	return nil
}

func errorType(err error) string {
	var (
		saveErr *SaveError
		invalid *forms.ValidationError
	)
	switch {
	case errors.Is(err, ErrConflict):
		return monitoring.ErrorConflict
	case errors.Is(err, ErrNotFound):
		return monitoring.ErrorNotFound
	case errors.As(err, &saveErr):
		return monitoring.ErrorSave
	case errors.As(err, &invalid):
		return "validation"
	default:
		return "load"
	}
}
