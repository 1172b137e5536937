// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

package entity

// Buckets splits the recognized credential-bearing entries into one map per kind,
// each keyed by cache key. ServerTelemetry, Throttling and AuthorityMetadata have
// no bucket.
type Buckets struct {
	Accounts      map[string]Account
	IDTokens      map[string]IDToken
	AccessTokens  map[string]AccessToken
	RefreshTokens map[string]RefreshToken
	AppMetadata   map[string]AppMetadata
}

// NewBuckets returns Buckets with every map allocated.
func NewBuckets() Buckets {
	return Buckets{
		Accounts:      map[string]Account{},
		IDTokens:      map[string]IDToken{},
		AccessTokens:  map[string]AccessToken{},
		RefreshTokens: map[string]RefreshToken{},
		AppMetadata:   map[string]AppMetadata{},
	}
}

// Len is the number of entries across all buckets.
func (b Buckets) Len() int {
	return len(b.Accounts) + len(b.IDTokens) + len(b.AccessTokens) + len(b.RefreshTokens) + len(b.AppMetadata)
}
