package cache

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"yatube/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(t *testing.T, ttl time.Duration) (*PageCache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New(actor.NewActorSystem(), ttl, utils.NewMetricsCollector(),
		WithClock(clock.Now), WithRequestTimeout(2*time.Second))
	t.Cleanup(c.Stop)
	return c, clock
}

func TestPageCacheExpiry(t *testing.T) {
	c, clock := newTestCache(t, 20*time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Put("k", Entry{Status: 200, Body: []byte("page")}))

	entry, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("page"), entry.Body)

	clock.Advance(19*time.Minute + 59*time.Second)
	_, ok = c.Get(ctx, "k")
	assert.True(t, ok, "still fresh just before the TTL")

	clock.Advance(time.Second)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok, "expired at the TTL")

	n, err := c.Len()
	require.NoError(t, err)
	assert.Zero(t, n, "expired entry dropped on lookup")
}

func TestPageCacheClear(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	require.NoError(t, c.Put("a", Entry{Status: 200}))
	require.NoError(t, c.Put("b", Entry{Status: 200}))

	n, err := c.Clear()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, ok := c.Get(context.Background(), "a")
	assert.False(t, ok)
}

func TestPageCacheSweepsOnPut(t *testing.T) {
	c, clock := newTestCache(t, time.Minute)
	require.NoError(t, c.Put("old", Entry{Status: 200}))
	clock.Advance(2 * time.Minute)
	require.NoError(t, c.Put("new", Entry{Status: 200}))

	n, err := c.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMiddlewareServesStalePageWithinTTL(t *testing.T) {
	c, clock := newTestCache(t, 20*time.Minute)

	var version atomic.Int64
	var calls atomic.Int64
	handler := c.Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<p>version %d</p>", version.Load())
	}))

	get := func(target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		return rec
	}

	first := get("/")
	version.Add(1)
	second := get("/")

	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
	assert.Equal(t, "text/html; charset=utf-8", second.Header().Get("Content-Type"))
	assert.Equal(t, int64(1), calls.Load())

	// A different query is a different page
	assert.Contains(t, get("/?page=2").Body.String(), "version 1")

	clock.Advance(20 * time.Minute)
	assert.Contains(t, get("/").Body.String(), "version 1")
}

func TestMiddlewareSkipsNonGETAndErrors(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	var calls atomic.Int64
	handler := c.Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("fail") != "" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))

	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/?fail=1", nil))
	}
	assert.Equal(t, int64(4), calls.Load())

	n, err := c.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMiddlewareVariesByViewer(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	handler := c.Middleware(func(r *http.Request) string {
		return r.Header.Get("X-Viewer")
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "hello %s", r.Header.Get("X-Viewer"))
	}))

	for _, viewer := range []string{"alice", "bob", "alice"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Viewer", viewer)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, "hello "+viewer, rec.Body.String())
	}
}

func TestGetFallsBackToMissWhenActorIsGone(t *testing.T) {
	system := actor.NewActorSystem()
	c := New(system, time.Minute, utils.NewMetricsCollector(), WithRequestTimeout(50*time.Millisecond))
	c.Stop()

	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
	assert.Error(t, c.Put("k", Entry{Status: 200}))
}
