// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

package entity

import (
	"net/url"
	"strings"
	"time"
)

// AuthorityMetadata caches the discovered endpoints and aliases of one authority host.
type AuthorityMetadata struct {
	Aliases               []string `json:"aliases"`
	PreferredCache        string   `json:"preferred_cache"`
	PreferredNetwork      string   `json:"preferred_network"`
	CanonicalAuthority    string   `json:"canonical_authority"`
	AuthorizationEndpoint string   `json:"authorization_endpoint"`
	TokenEndpoint         string   `json:"token_endpoint"`
	EndSessionEndpoint    string   `json:"end_session_endpoint,omitempty"`
	Issuer                string   `json:"issuer"`
	JWKSURI               string   `json:"jwks_uri,omitempty"`
	AliasesFromNetwork    bool     `json:"aliasesFromNetwork"`
	EndpointsFromNetwork  bool     `json:"endpointsFromNetwork"`
	ExpiresAt             Unix     `json:"expiresAt"`
}

// Kind implements Entry.
func (AuthorityMetadata) Kind() Kind { return KindAuthorityMetadata }

// AuthorityMetadataKey is the key metadata for host, as seen by clientID, is stored under.
func AuthorityMetadataKey(clientID, host string) string {
	return strings.ToLower(joinKey(authorityMetadataPrefix, clientID, host))
}

// IsAuthorityMetadataKey reports whether key is in the authority metadata key space.
func IsAuthorityMetadataKey(key string) bool {
	return strings.HasPrefix(key, authorityMetadataPrefix)
}

// Host returns the host (and port) of the canonical authority.
func (a AuthorityMetadata) Host() string {
	u, err := url.Parse(a.CanonicalAuthority)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

// Expired reports whether the metadata should be discovered again.
func (a AuthorityMetadata) Expired(now time.Time) bool {
	return !a.ExpiresAt.T.After(now)
}

// IsAuthorityMetadata reports whether e is complete AuthorityMetadata and key embeds
// the host of its canonical authority.
func IsAuthorityMetadata(key string, e Entry) bool {
	if e == nil || e.Kind() != KindAuthorityMetadata || !IsAuthorityMetadataKey(key) {
		return false
	}
	a, ok := e.(AuthorityMetadata)
	if !ok {
		return false
	}
	if a.PreferredCache == "" ||
		a.PreferredNetwork == "" ||
		a.AuthorizationEndpoint == "" ||
		a.TokenEndpoint == "" ||
		a.Issuer == "" {
		return false
	}
	host := a.Host()
	return host != "" && strings.HasSuffix(strings.ToLower(key), KeySeparator+host)
}
