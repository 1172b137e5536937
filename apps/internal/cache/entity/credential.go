// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

package entity

import (
	"encoding/json"
	"strings"
	"time"
)

// Credential types as written in the credential_type field.
const (
	CredentialTypeIDToken                   = "IdToken"
	CredentialTypeAccessToken               = "AccessToken"
	CredentialTypeAccessTokenWithAuthScheme = "AccessToken_With_AuthScheme"
	CredentialTypeRefreshToken              = "RefreshToken"
)

// TokenTypeBearer is the token type that is left out of access token keys.
const TokenTypeBearer = "Bearer"

// credentialKey builds the key shared by every credential kind:
// homeAccountID-environment-credentialType-clientOrFamilyID-realm-target-claimsHash-scheme.
// Empty parts keep their position.
func credentialKey(homeAccountID, env, credentialType, clientOrFamilyID, realm, target, claimsHash, tokenType string) string {
	scheme := ""
	if tokenType != "" && !strings.EqualFold(tokenType, TokenTypeBearer) {
		scheme = tokenType
	}
	return strings.ToLower(joinKey(homeAccountID, env, credentialType, clientOrFamilyID, realm, target, claimsHash, scheme))
}

// IDToken is the JSON representation of an MSAL id token for encoding to storage.
type IDToken struct {
	HomeAccountID  string `json:"home_account_id,omitempty"`
	Environment    string `json:"environment,omitempty"`
	Realm          string `json:"realm,omitempty"`
	CredentialType string `json:"credential_type,omitempty"`
	ClientID       string `json:"client_id,omitempty"`
	Secret         string `json:"secret,omitempty"`

	// AdditionalFields holds members written by other libraries, kept for the next write.
	AdditionalFields map[string]json.RawMessage `json:"-"`
}

// Kind implements Entry.
func (IDToken) Kind() Kind { return KindIDToken }

// NewIDToken is the constructor for IDToken.
func NewIDToken(homeID, env, realm, clientID, idToken string) IDToken {
	return IDToken{
		HomeAccountID:  homeID,
		Environment:    env,
		Realm:          realm,
		CredentialType: CredentialTypeIDToken,
		ClientID:       clientID,
		Secret:         idToken,
	}
}

// Key outputs the key that can be used to uniquely look up this entry in a map.
func (id IDToken) Key() string {
	return credentialKey(id.HomeAccountID, id.Environment, id.CredentialType, id.ClientID, id.Realm, "", "", "")
}

// IsIDToken reports whether e is a complete IdToken credential.
func IsIDToken(e Entry) bool {
	if e == nil || e.Kind() != KindIDToken {
		return false
	}
	id, ok := e.(IDToken)
	if !ok {
		return false
	}
	return id.CredentialType == CredentialTypeIDToken &&
		id.HomeAccountID != "" &&
		id.Environment != "" &&
		id.ClientID != "" &&
		id.Realm != "" &&
		id.Secret != ""
}

// AccessToken is the JSON representation of a MSAL access token for encoding to storage.
type AccessToken struct {
	HomeAccountID       string `json:"home_account_id,omitempty"`
	Environment         string `json:"environment,omitempty"`
	Realm               string `json:"realm,omitempty"`
	CredentialType      string `json:"credential_type,omitempty"`
	ClientID            string `json:"client_id,omitempty"`
	Secret              string `json:"secret,omitempty"`
	Scopes              string `json:"target,omitempty"`
	CachedAt            Unix   `json:"cached_at"`
	ExpiresOn           Unix   `json:"expires_on"`
	ExtendedExpiresOn   Unix   `json:"extended_expires_on"`
	RefreshOn           Unix   `json:"refresh_on"`
	TokenType           string `json:"token_type,omitempty"`
	KeyID               string `json:"key_id,omitempty"`
	RequestedClaims     string `json:"requested_claims,omitempty"`
	RequestedClaimsHash string `json:"requested_claims_hash,omitempty"`

	// AdditionalFields holds members written by other libraries, kept for the next write.
	AdditionalFields map[string]json.RawMessage `json:"-"`
}

// Kind implements Entry.
func (AccessToken) Kind() Kind { return KindAccessToken }

// NewAccessToken is the constructor for AccessToken.
func NewAccessToken(homeID, env, realm, clientID string, cachedAt, expiresOn, extendedExpiresOn time.Time, scopes, token string) AccessToken {
	return AccessToken{
		HomeAccountID:     homeID,
		Environment:       env,
		Realm:             realm,
		CredentialType:    CredentialTypeAccessToken,
		ClientID:          clientID,
		Secret:            token,
		Scopes:            scopes,
		CachedAt:          NewUnix(cachedAt),
		ExpiresOn:         NewUnix(expiresOn),
		ExtendedExpiresOn: NewUnix(extendedExpiresOn),
		TokenType:         TokenTypeBearer,
	}
}

// Key outputs the key that can be used to uniquely look up this entry in a map.
func (a AccessToken) Key() string {
	return credentialKey(a.HomeAccountID, a.Environment, a.CredentialType, a.ClientID, a.Realm, a.Scopes, a.RequestedClaimsHash, a.TokenType)
}

// Expired reports whether the token expires within buffer of now.
func (a AccessToken) Expired(now time.Time, buffer time.Duration) bool {
	return a.ExpiresOn.T.Before(now.Add(buffer))
}

// RefreshDue reports whether the server asked for the token to be refreshed by now.
func (a AccessToken) RefreshDue(now time.Time) bool {
	return !a.RefreshOn.IsZero() && !now.Before(a.RefreshOn.T)
}

// IsAccessToken reports whether e is a complete AccessToken credential, either bearer
// or bound to an authentication scheme.
func IsAccessToken(e Entry) bool {
	if e == nil || e.Kind() != KindAccessToken {
		return false
	}
	a, ok := e.(AccessToken)
	if !ok {
		return false
	}
	switch a.CredentialType {
	case CredentialTypeAccessToken, CredentialTypeAccessTokenWithAuthScheme:
	default:
		return false
	}
	return a.HomeAccountID != "" &&
		a.Environment != "" &&
		a.ClientID != "" &&
		a.Realm != "" &&
		a.Secret != "" &&
		a.Scopes != ""
}

// RefreshToken is the JSON representation of a MSAL refresh token for encoding to storage.
type RefreshToken struct {
	HomeAccountID  string `json:"home_account_id,omitempty"`
	Environment    string `json:"environment,omitempty"`
	Realm          string `json:"realm,omitempty"`
	CredentialType string `json:"credential_type,omitempty"`
	ClientID       string `json:"client_id,omitempty"`
	FamilyID       string `json:"family_id,omitempty"`
	Secret         string `json:"secret,omitempty"`

	// AdditionalFields holds members written by other libraries, kept for the next write.
	AdditionalFields map[string]json.RawMessage `json:"-"`
}

// Kind implements Entry.
func (RefreshToken) Kind() Kind { return KindRefreshToken }

// NewRefreshToken is the constructor for RefreshToken.
func NewRefreshToken(homeID, env, clientID, refreshToken, familyID string) RefreshToken {
	return RefreshToken{
		HomeAccountID:  homeID,
		Environment:    env,
		CredentialType: CredentialTypeRefreshToken,
		ClientID:       clientID,
		FamilyID:       familyID,
		Secret:         refreshToken,
	}
}

// Key outputs the key that can be used to uniquely look up this entry in a map.
// Family refresh tokens are keyed by family rather than by client.
func (rt RefreshToken) Key() string {
	id := rt.ClientID
	if rt.FamilyID != "" {
		id = rt.FamilyID
	}
	return credentialKey(rt.HomeAccountID, rt.Environment, rt.CredentialType, id, rt.Realm, "", "", "")
}

// IsRefreshToken reports whether e is a complete RefreshToken credential.
func IsRefreshToken(e Entry) bool {
	if e == nil || e.Kind() != KindRefreshToken {
		return false
	}
	rt, ok := e.(RefreshToken)
	if !ok {
		return false
	}
	return rt.CredentialType == CredentialTypeRefreshToken &&
		rt.HomeAccountID != "" &&
		rt.Environment != "" &&
		rt.ClientID != "" &&
		rt.Secret != ""
}
