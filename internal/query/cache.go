package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/infrastructure/monitoring"
)

// Key names a cached resource
type Key string

const (
	KeyBrowsers     Key = "browsers"
	KeySettings     Key = "settings"
	KeySettingsPath Key = "settings-path"
)

// Forever disables staleness or garbage collection for a key
const Forever time.Duration = -1

var (
	ErrUnknownKey = errors.New("query: unknown key")
	ErrClosed     = errors.New("query: cache closed")
)

// Options controls freshness and retry behavior of one key
type Options struct {
	StaleTime  time.Duration
	GCTime     time.Duration
	Retry      int
	RetryDelay time.Duration
}

// DefaultOptions matches browsers and settings: fresh for 5 minutes,
// collected after 10 minutes unused, 2 retries one second apart.
func DefaultOptions() Options {
	return Options{
		StaleTime:  5 * time.Minute,
		GCTime:     10 * time.Minute,
		Retry:      2,
		RetryDelay: time.Second,
	}
}

// ForeverOptions is for values that cannot change during a session
func ForeverOptions() Options {
	opts := DefaultOptions()
	opts.StaleTime = Forever
	opts.GCTime = Forever
	return opts
}

// Fetcher loads the current value of a key
type Fetcher func(ctx context.Context) (any, error)

// Status is the observable phase of a key
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusSuccess Status = "success"
)

// State is a snapshot of one key. Data is shared and must not be modified.
type State struct {
	Key       Key       `json:"key"`
	Status    Status    `json:"status"`
	Data      any       `json:"data,omitempty"`
	Err       error     `json:"-"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
	Revision  uint64    `json:"revision"`
	Stale     bool      `json:"stale"`
}

// HasData reports whether a value has ever been fetched
func (s State) HasData() bool {
	return s.Revision > 0
}

// Listener observes state transitions of a key
type Listener func(State)

type definition struct {
	fetch Fetcher
	opts  Options
}

type entry struct {
	state      State
	fetchedAt  time.Time
	lastAccess time.Time

	// generation changes on every invalidation; installed is the
	// generation of the data currently held.
	generation  uint64
	installed   uint64
	invalidated bool
	inflight    int

	listeners map[int]Listener
	nextID    int
}

// Cache holds the last known value of each registered key
type Cache struct {
	mu      sync.Mutex
	defs    map[Key]definition
	entries map[Key]*entry
	gen     uint64

	group   singleflight.Group
	now     func() time.Time
	logger  *zap.Logger
	metrics *monitoring.Metrics

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	janitor sync.Once
}

// Option configures a Cache
type Option func(*Cache)

// WithClock sets the time source used for staleness and collection
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// WithMetrics enables prometheus counters
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(c *Cache) { c.metrics = metrics }
}

// New creates an empty cache. Register keys before reading them.
func New(opts ...Option) *Cache {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache{
		defs:    make(map[Key]definition),
		entries: make(map[Key]*entry),
		now:     time.Now,
		logger:  zap.NewNop(),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register defines how a key is fetched. Registering again replaces the
// definition but keeps any cached value.
func (c *Cache) Register(key Key, opts Options, fetch Fetcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defs[key] = definition{fetch: fetch, opts: opts}
}

// Keys returns the registered keys in name order
func (c *Cache) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]Key, 0, len(c.defs))
	for k := range c.defs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Get returns the cached value when fresh. A stale value is returned as is
// and refreshed in the background; a missing value is fetched.
func (c *Cache) Get(ctx context.Context, key Key) (any, error) {
	c.mu.Lock()
	def, ok := c.defs[key]
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	now := c.now()
	e := c.entries[key]
	if e != nil && c.expired(e, def.opts, now) {
		c.evictLocked(key)
		e = nil
	}
	if e == nil {
		e = c.entryLocked(key)
	}
	e.lastAccess = now

	if !e.state.HasData() {
		c.mu.Unlock()
		c.metrics.RecordCacheRequest(string(key), monitoring.CacheMiss)
		return c.Fetch(ctx, key)
	}

	data := e.state.Data
	stale := c.stale(e, def.opts, now)
	c.mu.Unlock()

	if stale {
		c.metrics.RecordCacheRequest(string(key), monitoring.CacheStale)
		c.refresh(key)
	} else {
		c.metrics.RecordCacheRequest(string(key), monitoring.CacheHit)
	}
	return data, nil
}

// Fetch returns a value fetched no earlier than the last invalidation,
// joining an in-flight fetch of the same generation when there is one.
// The fetch itself outlives ctx; ctx only bounds the wait.
func (c *Cache) Fetch(ctx context.Context, key Key) (any, error) {
	c.mu.Lock()
	def, ok := c.defs[key]
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if c.ctx.Err() != nil {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	e := c.entryLocked(key)
	e.lastAccess = c.now()
	gen := e.generation
	c.mu.Unlock()

	flight := fmt.Sprintf("%s#%d", key, gen)
	ch := c.group.DoChan(flight, func() (any, error) {
		return c.run(key, gen, def)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// run executes one fetch cycle: loading, then success or error
func (c *Cache) run(key Key, gen uint64, def definition) (any, error) {
	c.transition(key, func(e *entry) {
		e.inflight++
		e.state.Status = StatusLoading
	})

	var (
		value any
		err   error
	)
	for attempt := 0; attempt <= def.opts.Retry; attempt++ {
		if attempt > 0 {
			c.metrics.IncCacheRetries(string(key))
			c.logger.Warn("Retrying fetch",
				zap.String("key", string(key)),
				zap.Int("attempt", attempt),
				zap.Error(err))
			if waitErr := c.wait(def.opts.RetryDelay); waitErr != nil {
				err = waitErr
				break
			}
		}
		value, err = def.fetch(c.ctx)
		if err == nil {
			break
		}
	}

	if err != nil {
		c.metrics.RecordCacheFetch(string(key), monitoring.StatusError)
		c.logger.Error("Fetch failed",
			zap.String("key", string(key)),
			zap.Int("attempts", def.opts.Retry+1),
			zap.Error(err))

		c.transition(key, func(e *entry) {
			e.inflight--
			if gen < e.installed {
				return
			}
			e.state.Status = StatusError
			e.state.Err = err
			e.state.Error = err.Error()
		})
		return nil, err
	}

	c.metrics.RecordCacheFetch(string(key), monitoring.StatusSuccess)
	c.logger.Debug("Fetched", zap.String("key", string(key)), zap.Uint64("generation", gen))

	c.transition(key, func(e *entry) {
		e.inflight--
		if gen < e.installed {
			// a newer generation already landed
			if e.state.Status == StatusLoading && e.inflight == 0 {
				e.state.Status = StatusSuccess
			}
			return
		}
		now := c.now()
		e.installed = gen
		e.fetchedAt = now
		if gen == e.generation {
			e.invalidated = false
		}
		e.state.Status = StatusSuccess
		e.state.Data = value
		e.state.Err = nil
		e.state.Error = ""
		e.state.UpdatedAt = now
		e.state.Revision++
	})
	return value, nil
}

// transition applies fn to the entry and notifies listeners outside the lock
func (c *Cache) transition(key Key, fn func(e *entry)) {
	c.mu.Lock()
	e := c.entryLocked(key)
	fn(e)
	state := e.state
	listeners := make([]Listener, 0, len(e.listeners))
	ids := make([]int, 0, len(e.listeners))
	for id := range e.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		listeners = append(listeners, e.listeners[id])
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(state)
	}
}

func (c *Cache) wait(d time.Duration) error {
	if d <= 0 {
		return c.ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-c.ctx.Done():
		return ErrClosed
	}
}

// refresh starts a background fetch of key
func (c *Cache) refresh(key Key) {
	if c.ctx.Err() != nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		// failures are recorded in the entry state
		_, _ = c.Fetch(c.ctx, key)
	}()
}

// Invalidate marks key stale and refetches it if it holds data or has
// listeners. Fetches started afterwards never join an earlier flight.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	c.gen++
	e.generation = c.gen
	e.invalidated = true
	active := e.state.HasData() || len(e.listeners) > 0
	c.mu.Unlock()

	c.logger.Debug("Invalidated", zap.String("key", string(key)))
	if active {
		c.refresh(key)
	}
}

// Peek returns the current state of key without fetching
func (c *Cache) Peek(key Key) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return State{Key: key, Status: StatusIdle}
	}
	state := e.state
	if def, ok := c.defs[key]; ok && state.HasData() {
		state.Stale = c.stale(e, def.opts, c.now())
	}
	return state
}

// Subscribe registers a listener for key. An entry with listeners is never
// collected. The returned function removes the listener.
func (c *Cache) Subscribe(key Key, fn Listener) func() {
	c.mu.Lock()
	e := c.entryLocked(key)
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if e, ok := c.entries[key]; ok {
				delete(e.listeners, id)
				e.lastAccess = c.now()
			}
		})
	}
}

// Sweep evicts idle entries older than their GCTime and returns how many
func (c *Cache) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for key, e := range c.entries {
		def, ok := c.defs[key]
		if !ok || !c.expired(e, def.opts, now) {
			continue
		}
		c.evictLocked(key)
		evicted++
	}
	return evicted
}

// StartJanitor sweeps every interval until Close
func (c *Cache) StartJanitor(interval time.Duration) {
	if interval <= 0 {
		return
	}
	c.janitor.Do(func() {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if n := c.Sweep(c.now()); n > 0 {
						c.logger.Debug("Swept cache", zap.Int("evicted", n))
					}
				case <-c.ctx.Done():
					return
				}
			}
		}()
	})
}

// Close cancels pending retries and waits for background refreshes and
// the janitor to stop.
func (c *Cache) Close() {
	c.cancel()
	c.wg.Wait()
}

func (c *Cache) entryLocked(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		c.gen++
		e = &entry{
			state:      State{Key: key, Status: StatusIdle},
			generation: c.gen,
			lastAccess: c.now(),
			listeners:  make(map[int]Listener),
		}
		c.entries[key] = e
	}
	return e
}

func (c *Cache) evictLocked(key Key) {
	delete(c.entries, key)
	c.metrics.IncCacheEvictions(string(key))
	c.logger.Debug("Evicted", zap.String("key", string(key)))
}

func (c *Cache) stale(e *entry, opts Options, now time.Time) bool {
	if e.invalidated {
		return true
	}
	if opts.StaleTime == Forever {
		return false
	}
	return now.Sub(e.fetchedAt) >= opts.StaleTime
}

func (c *Cache) expired(e *entry, opts Options, now time.Time) bool {
	if opts.GCTime == Forever || len(e.listeners) > 0 || e.inflight > 0 {
		return false
	}
	return now.Sub(e.lastAccess) >= opts.GCTime
}
