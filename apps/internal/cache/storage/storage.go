// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

// Package storage holds all cached token information for MSAL. The Engine keeps every
// entry in one flat map from cache key to entity.Entry; that map is the single source
// of truth. A bucketed view, one map per credential-bearing kind, is derived from it on
// demand and is what gets serialized.
//
// This storage can be augmented with third-party extensions to provide persistent
// storage. Those register a change callback and, when it fires, read the whole
// bucketed view and write it to their medium. On start-up they feed their blob back
// through GenerateInMemoryCache and SetInMemoryCache. They never touch the flat map
// directly.
//
// Nothing here returns an error to a flow: a missing or unusable entry is a cache miss.
package storage

import (
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/wedevops1/msal-cache-go/apps/internal/cache/entity"
	"github.com/wedevops1/msal-cache-go/apps/internal/cache/metrics"
	"github.com/wedevops1/msal-cache-go/apps/internal/slog"
)

// Locker is the mutual exclusion boundary around an Engine. *sync.RWMutex implements it.
type Locker interface {
	Lock()
	Unlock()
	RLock()
	RUnlock()
}

// NopLocker does no locking. It is only safe when a single goroutine uses the Engine.
type NopLocker struct{}

func (NopLocker) Lock()    {}
func (NopLocker) Unlock()  {}
func (NopLocker) RLock()   {}
func (NopLocker) RUnlock() {}

// Option configures an Engine.
type Option func(e *Engine)

// WithLogger sets the logger. The default writes nothing.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithLocker replaces the default *sync.RWMutex.
func WithLocker(l Locker) Option {
	return func(e *Engine) {
		if l != nil {
			e.mu = l
		}
	}
}

// WithMetrics sets where cache events are reported.
func WithMetrics(r metrics.Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.metrics = r
		}
	}
}

// Engine is an in-memory cache of accounts, credentials and metadata. Every mutation
// is followed by a change notification to the registered callbacks.
type Engine struct {
	mu    Locker
	cache map[string]entity.Entry
	// repaired maps keys moved by UpdateCredentialCacheKey to where they went.
	repaired map[string]string

	emitMu   sync.Mutex
	emitters []emitter

	log     *slog.Logger
	metrics metrics.Recorder
}

type emitter struct {
	id uuid.UUID
	fn func()
}

// New is the constructor for Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		mu:       &sync.RWMutex{},
		cache:    map[string]entity.Entry{},
		repaired: map[string]string{},
		log:      slog.Discard(),
		metrics:  metrics.Noop{},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Subscription identifies a registered change callback.
type Subscription struct {
	ID     uuid.UUID
	engine *Engine
}

// Unsubscribe stops the callback from being called. It reports whether the callback
// was still registered.
func (s Subscription) Unsubscribe() bool {
	if s.engine == nil {
		return false
	}
	return s.engine.unregister(s.ID)
}

// RegisterChangeEmitter appends fn to the callbacks run after every mutation.
// Callbacks run in registration order on the goroutine that made the change, after
// the change is visible and outside the engine lock, so they may read the Engine.
func (e *Engine) RegisterChangeEmitter(fn func()) Subscription {
	id := uuid.New()
	e.emitMu.Lock()
	e.emitters = append(e.emitters, emitter{id: id, fn: fn})
	e.emitMu.Unlock()
	return Subscription{ID: id, engine: e}
}

func (e *Engine) unregister(id uuid.UUID) bool {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()
	i := slices.IndexFunc(e.emitters, func(em emitter) bool { return em.id == id })
	if i < 0 {
		return false
	}
	e.emitters = slices.Delete(e.emitters, i, i+1)
	return true
}

// Subscribers returns the number of registered callbacks.
func (e *Engine) Subscribers() int {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()
	return len(e.emitters)
}

// EmitChange runs every registered callback.
func (e *Engine) EmitChange() {
	e.emitMu.Lock()
	emitters := slices.Clone(e.emitters)
	e.emitMu.Unlock()

	for _, em := range emitters {
		em.fn()
	}
	e.metrics.Notify(len(emitters))
}

// GetItem returns the entry stored under key.
func (e *Engine) GetItem(key string) (entity.Entry, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.cache[key]
	return v, ok
}

// SetItem stores v under key, replacing what was there.
func (e *Engine) SetItem(key string, v entity.Entry) {
	e.mu.Lock()
	e.cache[key] = v
	e.mu.Unlock()

	e.metrics.Write(kindName(v))
	e.log.TracePII("cache entry set", slog.Field("key", key), slog.Field("kind", kindName(v)))
	e.EmitChange()
}

// RemoveItem deletes key. It reports whether key existed; nothing is emitted if not.
func (e *Engine) RemoveItem(key string) bool {
	e.mu.Lock()
	_, ok := e.cache[key]
	if ok {
		delete(e.cache, key)
	}
	e.mu.Unlock()

	if !ok {
		return false
	}
	e.metrics.Remove()
	e.log.TracePII("cache entry removed", slog.Field("key", key))
	e.EmitChange()
	return true
}

// ContainsKey reports whether key is in the cache.
func (e *Engine) ContainsKey(key string) bool {
	_, ok := e.GetItem(key)
	return ok
}

// Keys returns every key in the cache, in no particular order.
func (e *Engine) Keys() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Collect(maps.Keys(e.cache))
}

// Cache returns a copy of the flat store.
func (e *Engine) Cache() map[string]entity.Entry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return maps.Clone(e.cache)
}

// SetCache replaces the flat store with a copy of cache.
func (e *Engine) SetCache(cache map[string]entity.Entry) {
	n := make(map[string]entity.Entry, len(cache))
	maps.Copy(n, cache)

	e.mu.Lock()
	e.cache = n
	clear(e.repaired)
	e.mu.Unlock()

	e.log.Trace("cache replaced", slog.Field("count", len(n)))
	e.EmitChange()
}

// Clear removes every entry, of every kind, and emits a single change.
func (e *Engine) Clear() {
	e.mu.Lock()
	n := len(e.cache)
	clear(e.cache)
	clear(e.repaired)
	e.mu.Unlock()

	for range n {
		e.metrics.Remove()
	}
	e.log.Trace("cache cleared", slog.Field("count", n))
	e.EmitChange()
}

func kindName(v entity.Entry) string {
	if v == nil {
		return entity.KindUnknown.String()
	}
	return v.Kind().String()
}
