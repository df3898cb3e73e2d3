// Package cache keeps rendered pages for a fixed time-to-live. The entries are owned by a single
// actor, so concurrent requests never touch the map directly.
package cache

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"yatube/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

const DefaultRequestTimeout = 250 * time.Millisecond

// Entry is a cached response.
type Entry struct {
	Status      int
	ContentType string
	Body        []byte
	StoredAt    time.Time
}

// Messages understood by the cache actor
type getEntryMsg struct {
	Key string
}

type getEntryResult struct {
	Entry *Entry
	Found bool
}

type putEntryMsg struct {
	Key   string
	Entry *Entry
}

type clearMsg struct{}

type lenMsg struct{}

type cacheActor struct {
	entries map[string]*Entry
	ttl     time.Duration
	now     func() time.Time
}

func (a *cacheActor) expired(e *Entry) bool {
	return !a.now().Before(e.StoredAt.Add(a.ttl))
}

// Receive serves lookups, stores and clears. Expired entries are dropped on lookup and swept
// on every store.
func (a *cacheActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *getEntryMsg:
		entry, ok := a.entries[msg.Key]
		if ok && a.expired(entry) {
			delete(a.entries, msg.Key)
			ok = false
		}
		if !ok {
			context.Respond(&getEntryResult{})
			return
		}
		context.Respond(&getEntryResult{Entry: entry, Found: true})

	case *putEntryMsg:
		for key, entry := range a.entries {
			if a.expired(entry) {
				delete(a.entries, key)
			}
		}
		a.entries[msg.Key] = msg.Entry
		context.Respond(true)

	case *clearMsg:
		n := len(a.entries)
		a.entries = make(map[string]*Entry)
		slog.Debug("cache: cleared", "entries", n)
		context.Respond(n)

	case *lenMsg:
		context.Respond(len(a.entries))
	}
}

// PageCache is the client side of the cache actor.
type PageCache struct {
	root    *actor.RootContext
	pid     *actor.PID
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time
	metrics *utils.MetricsCollector
}

type Option func(*PageCache)

// WithClock replaces the wall clock used for entry timestamps and expiry.
func WithClock(now func() time.Time) Option {
	return func(c *PageCache) { c.now = now }
}

// WithRequestTimeout bounds how long a caller waits for the actor before rendering uncached.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *PageCache) { c.timeout = d }
}

// New spawns the cache actor in system.
func New(system *actor.ActorSystem, ttl time.Duration, metrics *utils.MetricsCollector, opts ...Option) *PageCache {
	c := &PageCache{
		root:    system.Root,
		ttl:     ttl,
		timeout: DefaultRequestTimeout,
		now:     time.Now,
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(c)
	}

	props := actor.PropsFromProducer(func() actor.Actor {
		return &cacheActor{
			entries: make(map[string]*Entry),
			ttl:     c.ttl,
			now:     c.now,
		}
	})
	c.pid = c.root.Spawn(props)
	return c
}

func (c *PageCache) TTL() time.Duration {
	return c.ttl
}

// Get looks up a live entry. A timeout or failure of the actor counts as a miss.
func (c *PageCache) Get(ctx context.Context, key string) (*Entry, bool) {
	result, err := c.root.RequestFuture(c.pid, &getEntryMsg{Key: key}, c.timeout).Result()
	if err != nil {
		slog.Warn("cache: lookup failed", "key", key, "error", utils.NewAppError(utils.ErrCacheTimeout, "cache lookup", err))
		c.metrics.RecordCacheLookup(ctx, false)
		return nil, false
	}
	res, ok := result.(*getEntryResult)
	hit := ok && res.Found
	c.metrics.RecordCacheLookup(ctx, hit)
	if !hit {
		return nil, false
	}
	return res.Entry, true
}

// Put stores an entry stamped with the current time and waits until the actor has it.
func (c *PageCache) Put(key string, entry Entry) error {
	entry.StoredAt = c.now()
	_, err := c.root.RequestFuture(c.pid, &putEntryMsg{Key: key, Entry: &entry}, c.timeout).Result()
	if err != nil {
		return utils.NewAppError(utils.ErrCacheTimeout, "cache store", err)
	}
	return nil
}

// Clear drops every entry and returns how many there were.
func (c *PageCache) Clear() (int, error) {
	result, err := c.root.RequestFuture(c.pid, &clearMsg{}, c.timeout).Result()
	if err != nil {
		return 0, utils.NewAppError(utils.ErrCacheTimeout, "cache clear", err)
	}
	n, _ := result.(int)
	return n, nil
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (c *PageCache) Len() (int, error) {
	result, err := c.root.RequestFuture(c.pid, &lenMsg{}, c.timeout).Result()
	if err != nil {
		return 0, utils.NewAppError(utils.ErrCacheTimeout, "cache len", err)
	}
	n, _ := result.(int)
	return n, nil
}

// Stop terminates the cache actor.
func (c *PageCache) Stop() {
	if err := c.root.StopFuture(c.pid).Wait(); err != nil {
		slog.Warn("cache: stop failed", "error", err)
	}
}

// Key identifies a cached page: method, path and raw query, plus a vary value such as the
// viewer's user ID.
func Key(r *http.Request, vary string) string {
	return r.Method + " " + r.URL.Path + "?" + r.URL.RawQuery + "#" + vary
}

// Middleware caches successful GET responses of next. vary returns the per-request part of
// the key; it may be nil.
func (c *PageCache) Middleware(vary func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			varyValue := ""
			if vary != nil {
				varyValue = vary(r)
			}
			key := Key(r, varyValue)

			if entry, ok := c.Get(r.Context(), key); ok {
				if entry.ContentType != "" {
					w.Header().Set("Content-Type", entry.ContentType)
				}
				w.WriteHeader(entry.Status)
				w.Write(entry.Body)
				return
			}

			rec := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.status != http.StatusOK {
				return
			}
			err := c.Put(key, Entry{
				Status:      rec.status,
				ContentType: w.Header().Get("Content-Type"),
				Body:        rec.body.Bytes(),
			})
			if err != nil {
				slog.Warn("cache: store failed", "key", key, "error", err)
			}
		})
	}
}

// captureWriter passes the response through while keeping a copy of status and body.
type captureWriter struct {
	http.ResponseWriter
	status      int
	body        bytes.Buffer
	wroteHeader bool
}

func (w *captureWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}
