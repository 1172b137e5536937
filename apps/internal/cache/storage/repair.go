// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

package storage

import (
	"github.com/wedevops1/msal-cache-go/apps/internal/cache/entity"
	"github.com/wedevops1/msal-cache-go/apps/internal/cache/metrics"
	"github.com/wedevops1/msal-cache-go/apps/internal/slog"
)

// UpdateCredentialCacheKey moves the entry stored under oldKey to the key v generates
// today, so entries written under an older key derivation are not lost. It returns the
// key the entry now lives under.
//
// If the keys already match, or nothing is stored under oldKey, oldKey is returned and
// nothing changes; callers must not assume the entry moved. The one exception is an
// entry this Engine already moved from oldKey to newKey and that is still there: newKey
// is returned so repeating a repair gives the same answer. An entry under newKey that
// did not come from oldKey does not count. Replacing the whole store forgets earlier
// moves. The entry moved is the one found in the cache, not v. The removal and the
// insertion each emit a change.
func (e *Engine) UpdateCredentialCacheKey(oldKey string, v entity.Entry) string {
	kind := kindName(v)
	newKey, ok := entity.Key(v)
	if !ok {
		e.log.Error("cannot update the cache key of an entry whose key is not derived from its value", slog.Field("kind", kind))
		e.metrics.KeyRepair(metrics.RepairUnchanged)
		return oldKey
	}
	if newKey == oldKey {
		e.metrics.KeyRepair(metrics.RepairUnchanged)
		return oldKey
	}

	e.mu.Lock()
	item, found := e.cache[oldKey]
	_, present := e.cache[newKey]
	moved := !found && present && e.repaired[oldKey] == newKey
	if found {
		delete(e.cache, oldKey)
		e.cache[newKey] = item
		e.repaired[oldKey] = newKey
	}
	e.mu.Unlock()

	switch {
	case moved:
		e.log.Verbose("cache key is already up to date", slog.Field("kind", kind))
		e.metrics.KeyRepair(metrics.RepairUnchanged)
		return newKey
	case !found:
		e.log.Error("attempted to update an outdated cache key but no cache item could be found", slog.Field("kind", kind))
		e.metrics.KeyRepair(metrics.RepairMissing)
		return oldKey
	}

	e.metrics.Remove()
	e.EmitChange()
	e.metrics.Write(kindName(item))
	e.EmitChange()

	e.metrics.KeyRepair(metrics.RepairMoved)
	e.log.Verbose("updated an outdated cache key", slog.Field("kind", kind))
	e.log.TracePII("cache key moved", slog.Field("from", oldKey), slog.Field("to", newKey))
	return newKey
}
