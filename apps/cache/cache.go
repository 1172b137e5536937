// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

/*
Package cache is the token cache of MSAL: accounts, ID tokens, access tokens, refresh
tokens and app metadata, plus the metadata MSAL keeps beside them.

A Cache lives in memory. Third parties can provide persistent storage by implementing
ExportReplace and passing it to Mirror, or by calling Marshal and Unmarshal themselves.
The bytes are the MSAL cache format shared with MSAL libraries in other languages.
Sections of a blob this package does not understand survive an Unmarshal and
Marshal round trip.
*/
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	stdslog "log/slog"
	"maps"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wedevops1/msal-cache-go/apps/internal/cache/codec"
	"github.com/wedevops1/msal-cache-go/apps/internal/cache/entity"
	"github.com/wedevops1/msal-cache-go/apps/internal/cache/metrics"
	"github.com/wedevops1/msal-cache-go/apps/internal/cache/storage"
	"github.com/wedevops1/msal-cache-go/apps/internal/config"
	"github.com/wedevops1/msal-cache-go/apps/internal/slog"
)

var _ Serializer = (*Cache)(nil)

// Marshaler marshals data from an internal cache to bytes that can be stored.
type Marshaler interface {
	Marshal() ([]byte, error)
}

// Unmarshaler unmarshals data from a storage medium into the internal cache, overwriting it.
type Unmarshaler interface {
	Unmarshal([]byte) error
}

// Serializer can serialize the cache to binary or from binary into the cache.
type Serializer interface {
	Marshaler
	Unmarshaler
}

// ExportReplace is used to export or replace what is in the cache.
// Implementors should honor Context cancellations and return a context.Canceled or
// context.DeadlineExceeded in those cases. Retries are the implementation's job.
type ExportReplace interface {
	// Replace replaces the cache with what is in external storage.
	// key is the suggested key which can be used for partitioning the cache.
	Replace(ctx context.Context, cache Unmarshaler, key string) error
	// Export writes the binary representation of the cache (cache.Marshal()) to
	// external storage. This is considered opaque.
	Export(ctx context.Context, cache Marshaler, key string) error
}

type options struct {
	storage  []storage.Option
	registry prometheus.Registerer
}

// Option configures a Cache.
type Option func(o *options)

// WithLogger sends cache logs to l. With pii set, records that include cache keys,
// which embed account identifiers, are written at trace level.
func WithLogger(l *stdslog.Logger, pii bool) Option {
	return func(o *options) {
		o.storage = append(o.storage, storage.WithLogger(slog.New(l, slog.WithPII(pii))))
	}
}

// WithSingleWriter removes internal locking. Only use it when one goroutine owns the Cache.
func WithSingleWriter() Option {
	return func(o *options) {
		o.storage = append(o.storage, storage.WithLocker(storage.NopLocker{}))
	}
}

// WithRegisterer registers the cache metrics with r.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) {
		o.registry = r
	}
}

// Cache is an in-memory MSAL token cache. It is safe for concurrent use unless
// created WithSingleWriter. Cache implements Serializer.
type Cache struct {
	engine *storage.Engine

	mu sync.Mutex
	// extra holds blob sections this package does not interpret.
	extra map[string]json.RawMessage
}

// New creates an empty Cache.
func New(opts ...Option) (*Cache, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry != nil {
		p, err := metrics.NewPrometheus(o.registry)
		if err != nil {
			return nil, fmt.Errorf("cache metrics: %w", err)
		}
		o.storage = append(o.storage, storage.WithMetrics(p))
	}
	return &Cache{engine: storage.New(o.storage...), extra: map[string]json.RawMessage{}}, nil
}

// NewFromEnv creates an empty Cache configured from MSAL_CACHE_* environment variables,
// logging to w. opts are applied after the environment.
func NewFromEnv(w io.Writer, opts ...Option) (*Cache, error) {
	c, err := config.Load()
	if err != nil {
		return nil, err
	}
	fromEnv := func(o *options) {
		o.storage = append(o.storage, c.StorageOptions(w)...)
	}
	return New(append([]Option{fromEnv}, opts...)...)
}

// Marshal implements Marshaler.
func (c *Cache) Marshal() ([]byte, error) {
	doc, err := codec.Encode(c.engine.InMemoryCache())
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	maps.Copy(doc.Extra, c.extra)
	c.mu.Unlock()
	return doc.Marshal()
}

// Unmarshal implements Unmarshaler. Accounts, tokens and app metadata are replaced by
// those in b. An empty b empties them. The cache is unchanged if b is not a JSON object.
func (c *Cache) Unmarshal(b []byte) error {
	doc, err := codec.Parse(b)
	if err != nil {
		return fmt.Errorf("cache could not be loaded: %w", err)
	}
	c.mu.Lock()
	c.extra = doc.Extra
	c.mu.Unlock()
	c.engine.ReplaceInMemoryCache(codec.Decode(doc))
	return nil
}

// Merge adds the entries in b to the cache, replacing entries with the same key.
func (c *Cache) Merge(b []byte) error {
	buckets, err := storage.GenerateInMemoryCache(b)
	if err != nil {
		return err
	}
	c.engine.SetInMemoryCache(buckets)
	return nil
}

// OnChange calls fn after every change to the cache, in the order callbacks were
// added. fn may read the Cache. The returned func removes fn.
func (c *Cache) OnChange(fn func()) (remove func() bool) {
	return c.engine.RegisterChangeEmitter(fn).Unsubscribe
}

// Clear removes everything from the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	clear(c.extra)
	c.mu.Unlock()
	c.engine.Clear()
}

// Mirror keeps external storage in step with the cache. It loads the cache from er,
// then exports it after every change. Export errors are passed to onErr, which may be
// nil. The first change seen after ctx is done removes the callback instead of
// exporting. The returned func removes it at once.
func (c *Cache) Mirror(ctx context.Context, er ExportReplace, key string, onErr func(error)) (stop func(), err error) {
	if err := er.Replace(ctx, c, key); err != nil {
		return nil, fmt.Errorf("replace from external storage: %w", err)
	}

	var (
		mu     sync.Mutex
		remove func() bool
	)
	stop = func() {
		mu.Lock()
		defer mu.Unlock()
		if remove != nil {
			remove()
			remove = nil
		}
	}

	mu.Lock()
	remove = c.OnChange(func() {
		if ctx.Err() != nil {
			stop()
			return
		}
		if err := er.Export(ctx, c, key); err != nil && onErr != nil {
			onErr(err)
		}
	})
	mu.Unlock()
	return stop, nil
}

// RepairKeys moves every usable account, token and app metadata entry stored under a
// key other than its canonical one. It returns how many entries moved.
func (c *Cache) RepairKeys() int {
	b, _ := storage.ToBuckets(c.engine.Cache())
	moved := 0
	for key, v := range storage.ToFlat(nil, b) {
		want, ok := entity.Key(v)
		if !ok || want == key {
			continue
		}
		if c.engine.UpdateCredentialCacheKey(key, v) == want {
			moved++
		}
	}
	return moved
}

// Summary describes what a Cache holds.
type Summary struct {
	Accounts      int
	IDTokens      int
	AccessTokens  int
	RefreshTokens int
	AppMetadata   int
	// Unbucketed lists keys that are not serialized: telemetry, throttling, authority
	// metadata and entries that are incomplete or unrecognized.
	Unbucketed []string
}

// Summary returns the number of entries of each serialized kind and the keys of the rest.
func (c *Cache) Summary() Summary {
	b, dropped := storage.ToBuckets(c.engine.Cache())
	return Summary{
		Accounts:      len(b.Accounts),
		IDTokens:      len(b.IDTokens),
		AccessTokens:  len(b.AccessTokens),
		RefreshTokens: len(b.RefreshTokens),
		AppMetadata:   len(b.AppMetadata),
		Unbucketed:    dropped,
	}
}
