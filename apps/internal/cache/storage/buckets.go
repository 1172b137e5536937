// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

package storage

import (
	"fmt"
	"maps"
	"slices"

	"github.com/wedevops1/msal-cache-go/apps/internal/cache/codec"
	"github.com/wedevops1/msal-cache-go/apps/internal/cache/entity"
	"github.com/wedevops1/msal-cache-go/apps/internal/slog"
)

type bucketRule struct {
	accepts func(v entity.Entry) bool
	add     func(b entity.Buckets, key string, v entity.Entry)
}

// bucketOrder is the precedence in which entries are classified: the first rule that
// accepts an entry decides its bucket. ToFlat merges in the same order.
var bucketOrder = []bucketRule{
	{entity.IsAccount, func(b entity.Buckets, k string, v entity.Entry) { b.Accounts[k] = v.(entity.Account) }},
	{entity.IsIDToken, func(b entity.Buckets, k string, v entity.Entry) { b.IDTokens[k] = v.(entity.IDToken) }},
	{entity.IsAccessToken, func(b entity.Buckets, k string, v entity.Entry) { b.AccessTokens[k] = v.(entity.AccessToken) }},
	{entity.IsRefreshToken, func(b entity.Buckets, k string, v entity.Entry) { b.RefreshTokens[k] = v.(entity.RefreshToken) }},
	{entity.IsAppMetadata, func(b entity.Buckets, k string, v entity.Entry) { b.AppMetadata[k] = v.(entity.AppMetadata) }},
}

// ToBuckets derives the bucketed view of flat. Keys whose entries fit no bucket are
// left out of the view and returned, sorted, as dropped. This includes every
// ServerTelemetry, Throttling, AuthorityMetadata and Unknown entry.
func ToBuckets(flat map[string]entity.Entry) (b entity.Buckets, dropped []string) {
	b = entity.NewBuckets()
	for key, v := range flat {
		placed := false
		for _, rule := range bucketOrder {
			if rule.accepts(v) {
				rule.add(b, key, v)
				placed = true
				break
			}
		}
		if !placed {
			dropped = append(dropped, key)
		}
	}
	slices.Sort(dropped)
	return b, dropped
}

// ToFlat returns a copy of flat with every bucket merged in. A bucket entry replaces a
// flat entry with the same key.
func ToFlat(flat map[string]entity.Entry, b entity.Buckets) map[string]entity.Entry {
	out := make(map[string]entity.Entry, len(flat)+b.Len())
	maps.Copy(out, flat)
	for k, v := range b.Accounts {
		out[k] = v
	}
	for k, v := range b.IDTokens {
		out[k] = v
	}
	for k, v := range b.AccessTokens {
		out[k] = v
	}
	for k, v := range b.RefreshTokens {
		out[k] = v
	}
	for k, v := range b.AppMetadata {
		out[k] = v
	}
	return out
}

// InMemoryCache returns the bucketed view of the cache.
func (e *Engine) InMemoryCache() entity.Buckets {
	b, _ := e.buckets()
	return b
}

// DroppedKeys returns the keys the bucketed view currently leaves out.
func (e *Engine) DroppedKeys() []string {
	_, dropped := e.buckets()
	return dropped
}

// view derives the bucketed view without logging or reporting metrics.
func (e *Engine) view() entity.Buckets {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, _ := ToBuckets(e.cache)
	return b
}

func (e *Engine) buckets() (entity.Buckets, []string) {
	e.mu.RLock()
	b, dropped := ToBuckets(e.cache)
	e.mu.RUnlock()

	e.metrics.Dropped(len(dropped))
	if len(dropped) > 0 {
		e.log.Trace("entries left out of the bucketed view", slog.Field("count", len(dropped)))
		e.log.TracePII("unbucketed cache keys", slog.Field("keys", dropped))
	}
	return b, dropped
}

// SetInMemoryCache merges b into the cache and emits a single change.
func (e *Engine) SetInMemoryCache(b entity.Buckets) {
	e.mu.Lock()
	e.cache = ToFlat(e.cache, b)
	e.mu.Unlock()

	e.recordWrites(b)
	e.log.Trace("bucketed view merged", slog.Field("count", b.Len()))
	e.EmitChange()
}

// ReplaceInMemoryCache replaces every bucketed entry with b. Entries that have no
// bucket, such as authority metadata, are kept. A single change is emitted.
func (e *Engine) ReplaceInMemoryCache(b entity.Buckets) {
	e.mu.Lock()
	_, dropped := ToBuckets(e.cache)
	kept := make(map[string]entity.Entry, len(dropped))
	for _, k := range dropped {
		kept[k] = e.cache[k]
	}
	e.cache = ToFlat(kept, b)
	clear(e.repaired)
	e.mu.Unlock()

	e.recordWrites(b)
	e.log.Trace("bucketed view replaced", slog.Field("count", b.Len()), slog.Field("kept", len(kept)))
	e.EmitChange()
}

func (e *Engine) recordWrites(b entity.Buckets) {
	counts := []struct {
		kind entity.Kind
		n    int
	}{
		{entity.KindAccount, len(b.Accounts)},
		{entity.KindIDToken, len(b.IDTokens)},
		{entity.KindAccessToken, len(b.AccessTokens)},
		{entity.KindRefreshToken, len(b.RefreshTokens)},
		{entity.KindAppMetadata, len(b.AppMetadata)},
	}
	for _, c := range counts {
		for range c.n {
			e.metrics.Write(c.kind.String())
		}
	}
}

// GenerateInMemoryCache parses a serialized cache into its bucketed view. It only fails
// when blob is not a JSON object; an empty blob gives empty buckets.
func GenerateInMemoryCache(blob []byte) (entity.Buckets, error) {
	doc, err := codec.Parse(blob)
	if err != nil {
		return entity.NewBuckets(), fmt.Errorf("cache could not be loaded: %w", err)
	}
	return codec.Decode(doc), nil
}

// GenerateJSONCache serializes a bucketed view.
func GenerateJSONCache(b entity.Buckets) ([]byte, error) {
	doc, err := codec.Encode(b)
	if err != nil {
		return nil, err
	}
	return doc.Marshal()
}
