// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

// Package entity defines the values held by the token cache. Every value is an Entry
// with an explicit Kind. Each kind has a classifier, which decides whether an Entry is
// a usable instance of that kind, and, where the identifying fields live in the value,
// a key generator producing the kind's canonical cache key.
//
// Keys are pure functions of the identifying fields, so regenerating a key from
// unchanged data always yields the same key. The layout of the keys is shared with MSAL
// libraries written in other languages and must not change.
package entity

import (
	"encoding/json"
	"strings"
)

// Kind discriminates the variants of Entry.
type Kind int

const (
	KindUnknown Kind = iota
	KindAccount
	KindIDToken
	KindAccessToken
	KindRefreshToken
	KindAppMetadata
	KindServerTelemetry
	KindThrottling
	KindAuthorityMetadata
)

func (k Kind) String() string {
	switch k {
	case KindAccount:
		return "Account"
	case KindIDToken:
		return "IdToken"
	case KindAccessToken:
		return "AccessToken"
	case KindRefreshToken:
		return "RefreshToken"
	case KindAppMetadata:
		return "AppMetadata"
	case KindServerTelemetry:
		return "ServerTelemetry"
	case KindThrottling:
		return "Throttling"
	case KindAuthorityMetadata:
		return "AuthorityMetadata"
	}
	return "Unknown"
}

// Entry is a value stored in the cache. Implementations are the value types in this
// package; storing pointers to them is not supported.
type Entry interface {
	Kind() Kind
}

// Unknown holds a value the cache cannot interpret, typically written by another
// process or a newer library version. It is kept in the flat store but never
// classified as any other kind.
type Unknown struct {
	Raw json.RawMessage
}

// Kind implements Entry.
func (Unknown) Kind() Kind { return KindUnknown }

const (
	// KeySeparator joins the parts of a cache key.
	KeySeparator = "-"

	appMetadataPrefix       = "appmetadata"
	serverTelemetryPrefix   = "server-telemetry"
	throttlingPrefix        = "throttling"
	authorityMetadataPrefix = "authority-metadata"
)

// Key returns the canonical cache key of e. It returns false for kinds whose key
// cannot be derived from the value alone: ServerTelemetry, Throttling,
// AuthorityMetadata and Unknown.
func Key(e Entry) (string, bool) {
	switch v := e.(type) {
	case Account:
		return v.Key(), true
	case IDToken:
		return v.Key(), true
	case AccessToken:
		return v.Key(), true
	case RefreshToken:
		return v.Key(), true
	case AppMetadata:
		return v.Key(), true
	}
	return "", false
}

func joinKey(parts ...string) string {
	return strings.Join(parts, KeySeparator)
}
