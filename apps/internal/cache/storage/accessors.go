// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

package storage

import (
	"maps"
	"slices"

	"github.com/wedevops1/msal-cache-go/apps/internal/cache/entity"
	"github.com/wedevops1/msal-cache-go/apps/internal/slog"
)

// get returns the entry under key if accepts classifies it as T. A missing entry and
// an entry of another kind are both reported as not found.
func get[T entity.Entry](e *Engine, key string, kind entity.Kind, accepts func(key string, v entity.Entry) bool) (T, bool) {
	var zero T
	v, ok := e.GetItem(key)
	if !ok {
		return zero, false
	}
	t, isT := v.(T)
	if !isT || !accepts(key, v) {
		e.log.Trace("cache entry is not a usable "+kind.String(), slog.Field("found", kindName(v)))
		return zero, false
	}
	return t, true
}

func valueOnly(accepts func(entity.Entry) bool) func(string, entity.Entry) bool {
	return func(_ string, v entity.Entry) bool { return accepts(v) }
}

// Account returns the account stored under key.
func (e *Engine) Account(key string) (entity.Account, bool) {
	return get[entity.Account](e, key, entity.KindAccount, valueOnly(entity.IsAccount))
}

// SetAccount stores a under its account key.
func (e *Engine) SetAccount(a entity.Account) {
	e.SetItem(a.Key(), a)
}

// IDToken returns the id token stored under key.
func (e *Engine) IDToken(key string) (entity.IDToken, bool) {
	return get[entity.IDToken](e, key, entity.KindIDToken, valueOnly(entity.IsIDToken))
}

// SetIDToken stores t under its credential key.
func (e *Engine) SetIDToken(t entity.IDToken) {
	e.SetItem(t.Key(), t)
}

// AccessToken returns the access token stored under key.
func (e *Engine) AccessToken(key string) (entity.AccessToken, bool) {
	return get[entity.AccessToken](e, key, entity.KindAccessToken, valueOnly(entity.IsAccessToken))
}

// SetAccessToken stores t under its credential key.
func (e *Engine) SetAccessToken(t entity.AccessToken) {
	e.SetItem(t.Key(), t)
}

// RefreshToken returns the refresh token stored under key.
func (e *Engine) RefreshToken(key string) (entity.RefreshToken, bool) {
	return get[entity.RefreshToken](e, key, entity.KindRefreshToken, valueOnly(entity.IsRefreshToken))
}

// SetRefreshToken stores t under its credential key.
func (e *Engine) SetRefreshToken(t entity.RefreshToken) {
	e.SetItem(t.Key(), t)
}

// AppMetadata returns the application metadata stored under key.
func (e *Engine) AppMetadata(key string) (entity.AppMetadata, bool) {
	return get[entity.AppMetadata](e, key, entity.KindAppMetadata, valueOnly(entity.IsAppMetadata))
}

// SetAppMetadata stores m under its key.
func (e *Engine) SetAppMetadata(m entity.AppMetadata) {
	e.SetItem(m.Key(), m)
}

// ServerTelemetry returns the telemetry stored under key, which must be a key built by
// entity.ServerTelemetryKey.
func (e *Engine) ServerTelemetry(key string) (entity.ServerTelemetry, bool) {
	return get[entity.ServerTelemetry](e, key, entity.KindServerTelemetry, entity.IsServerTelemetry)
}

// SetServerTelemetry stores t under key. The client the telemetry belongs to is only
// recorded in the key, so the caller supplies it.
func (e *Engine) SetServerTelemetry(key string, t entity.ServerTelemetry) {
	e.SetItem(key, t)
}

// Throttling returns the throttling record stored under key.
func (e *Engine) Throttling(key string) (entity.Throttling, bool) {
	return get[entity.Throttling](e, key, entity.KindThrottling, entity.IsThrottling)
}

// SetThrottling stores t under key, built by entity.ThrottlingKey.
func (e *Engine) SetThrottling(key string, t entity.Throttling) {
	e.SetItem(key, t)
}

// AuthorityMetadata returns the authority metadata stored under key.
func (e *Engine) AuthorityMetadata(key string) (entity.AuthorityMetadata, bool) {
	return get[entity.AuthorityMetadata](e, key, entity.KindAuthorityMetadata, entity.IsAuthorityMetadata)
}

// SetAuthorityMetadata stores m under key, built by entity.AuthorityMetadataKey.
func (e *Engine) SetAuthorityMetadata(key string, m entity.AuthorityMetadata) {
	e.SetItem(key, m)
}

// AccountKeys returns the keys of the accounts bucket, sorted.
func (e *Engine) AccountKeys() []string {
	return slices.Sorted(maps.Keys(e.view().Accounts))
}

// TokenKeys holds the keys of the credential buckets.
type TokenKeys struct {
	IDToken      []string
	AccessToken  []string
	RefreshToken []string
}

// TokenKeys returns the keys of the three credential buckets, each sorted.
func (e *Engine) TokenKeys() TokenKeys {
	b := e.view()
	return TokenKeys{
		IDToken:      slices.Sorted(maps.Keys(b.IDTokens)),
		AccessToken:  slices.Sorted(maps.Keys(b.AccessTokens)),
		RefreshToken: slices.Sorted(maps.Keys(b.RefreshTokens)),
	}
}

// AuthorityMetadataKeys returns every key in the authority metadata key space. Such
// entries have no bucket, so the flat keys are filtered instead.
func (e *Engine) AuthorityMetadataKeys() []string {
	keys := slices.DeleteFunc(e.Keys(), func(k string) bool {
		return !entity.IsAuthorityMetadataKey(k)
	})
	slices.Sort(keys)
	return keys
}
