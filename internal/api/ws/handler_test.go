package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/query"
)

type streamFixture struct {
	cache   *query.Cache
	metrics *monitoring.Metrics
	conn    *websocket.Conn
	fetches *atomic.Int32
}

func newStream(t *testing.T) *streamFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cache := query.New()
	t.Cleanup(cache.Close)

	fetches := &atomic.Int32{}
	opts := query.DefaultOptions()
	opts.RetryDelay = time.Millisecond
	cache.Register(query.KeySettingsPath, opts, func(ctx context.Context) (any, error) {
		return "/tmp/settings.json", nil
	})
	cache.Register(query.KeySettings, opts, func(ctx context.Context) (any, error) {
		fetches.Add(1)
		return map[string]any{"sites": []any{}}, nil
	})

	metrics := monitoring.NewMetrics()
	router := gin.New()
	router.GET("/stream", NewHandler(cache, nil, metrics).HandleConnection)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &streamFixture{cache: cache, metrics: metrics, conn: conn, fetches: fetches}
}

func (f *streamFixture) read(t *testing.T) map[string]any {
	t.Helper()
	require.NoError(t, f.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg map[string]any
	require.NoError(t, f.conn.ReadJSON(&msg))
	return msg
}

// readUntil skips messages until match returns true
func (f *streamFixture) readUntil(t *testing.T, match func(map[string]any) bool) map[string]any {
	t.Helper()
	for i := 0; i < 20; i++ {
		msg := f.read(t)
		if match(msg) {
			return msg
		}
	}
	t.Fatal("expected message never arrived")
	return nil
}

func TestConnectSendsSystemThenSnapshot(t *testing.T) {
	f := newStream(t)

	sys := f.read(t)
	assert.Equal(t, "system", sys["type"])
	assert.ElementsMatch(t, []any{"settings", "settings-path"}, sys["keys"])

	first := f.read(t)
	second := f.read(t)
	assert.Equal(t, "state", first["type"])
	assert.Equal(t, "state", second["type"])
	assert.Equal(t, "idle", first["status"])

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(f.metrics.WSConnections) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestInvalidateStreamsTransitions(t *testing.T) {
	f := newStream(t)
	f.read(t) // system

	require.NoError(t, f.conn.WriteJSON(ClientMessage{Type: "invalidate", Key: query.KeySettings}))

	msg := f.readUntil(t, func(m map[string]any) bool {
		return m["type"] == "state" && m["key"] == "settings" && m["status"] == "success"
	})
	assert.EqualValues(t, 1, msg["revision"])
	assert.NotNil(t, msg["data"])
	assert.Equal(t, int32(1), f.fetches.Load())
}

func TestPingAndBadMessages(t *testing.T) {
	f := newStream(t)
	f.read(t) // system

	require.NoError(t, f.conn.WriteJSON(ClientMessage{Type: "ping"}))
	f.readUntil(t, func(m map[string]any) bool { return m["type"] == "pong" })

	require.NoError(t, f.conn.WriteJSON(ClientMessage{Type: "invalidate", Key: "nope"}))
	msg := f.readUntil(t, func(m map[string]any) bool { return m["type"] == "error" })
	assert.Equal(t, "unknown key", msg["message"])

	require.NoError(t, f.conn.WriteJSON(ClientMessage{Type: "shout"}))
	msg = f.readUntil(t, func(m map[string]any) bool { return m["type"] == "error" })
	assert.Equal(t, "unknown message type", msg["message"])
}

func TestSnapshotResendsEveryKey(t *testing.T) {
	f := newStream(t)
	f.read(t)
	f.read(t)
	f.read(t)

	require.NoError(t, f.conn.WriteJSON(ClientMessage{Type: "snapshot"}))
	seen := map[any]bool{}
	for len(seen) < 2 {
		msg := f.read(t)
		if msg["type"] == "state" {
			seen[msg["key"]] = true
		}
	}
	assert.True(t, seen["settings"])
	assert.True(t, seen["settings-path"])
}

func TestDisconnectReleasesSubscriptions(t *testing.T) {
	f := newStream(t)
	f.read(t)
	require.NoError(t, f.conn.Close())

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(f.metrics.WSConnections) == 0
	}, 2*time.Second, 5*time.Millisecond)
}
