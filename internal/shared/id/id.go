// Package id provides centralized ID generation for the engine.
//
// Entity ids (sites, proxies) are ULIDs drawn from a monotonic entropy
// source, so they are timestamp-derived and strictly increasing within one
// process even when several are minted in the same millisecond.
//
// Request and trace ids use the same generator with a short prefix
// (req_*, span_*) to keep logs readable.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ============================================================================
// Type-Safe ID Wrappers
// ============================================================================

// RequestID identifies an API request
type RequestID string

// SpanID identifies a tracer span
type SpanID string

// ============================================================================
// ID Prefixes (for debugging and type identification)
// ============================================================================

const (
	RequestPrefix = "req"
	SpanPrefix    = "span"
)

// ============================================================================
// ULID Generator (Primary)
// ============================================================================

// Generator generates monotonic ULIDs with optional prefixes
type Generator struct {
	now       func() time.Time
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader and monotonic state
}

var (
	defaultGenerator *Generator
	once             sync.Once

	sessionID     string
	sessionIDOnce sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator backed by crypto/rand
func NewGenerator() *Generator {
	return NewGeneratorWithEntropy(rand.Reader)
}

// NewGeneratorWithEntropy creates a generator with custom entropy source.
// Useful for testing with deterministic entropy.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		now:     time.Now,
		entropy: ulid.Monotonic(entropy, 0),
	}
}

// WithClock replaces the time source, mainly for tests
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()
	g.now = now
	return g
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewEntityID generates an id for a new site or proxy record
func NewEntityID() string {
	return Default().GenerateString()
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewSpanID generates a new span ID
func NewSpanID() SpanID {
	return SpanID(Default().GenerateWithPrefix(SpanPrefix))
}

// Session returns the id of the current process session. It is stable for
// the lifetime of the process and tags every log line.
func Session() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

func (id RequestID) String() string { return string(id) }
func (id SpanID) String() string    { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Timestamp extracts the timestamp from a ULID
func Timestamp(id string) (time.Time, error) {
	parsed, err := ulid.Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
