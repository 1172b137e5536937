// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Authority types recorded on an Account.
const (
	AuthorityTypeAAD   = "MSSTS"
	AuthorityTypeADFS  = "ADFS"
	AuthorityTypeOther = "Generic"
)

// Account is the JSON representation of a signed-in account for encoding to storage.
type Account struct {
	HomeAccountID  string `json:"home_account_id,omitempty"`
	Environment    string `json:"environment,omitempty"`
	Realm          string `json:"realm,omitempty"`
	LocalAccountID string `json:"local_account_id,omitempty"`
	Username       string `json:"username,omitempty"`
	AuthorityType  string `json:"authority_type,omitempty"`
	Name           string `json:"name,omitempty"`
	ClientInfo     string `json:"client_info,omitempty"`
	LastModifiedOn Unix   `json:"last_modified_on"`

	// AdditionalFields holds members written by other libraries, kept for the next write.
	AdditionalFields map[string]json.RawMessage `json:"-"`
}

// Kind implements Entry.
func (Account) Kind() Kind { return KindAccount }

// NewAccount creates an account.
func NewAccount(homeAccountID, env, realm, localAccountID, authorityType, username string) Account {
	return Account{
		HomeAccountID:  homeAccountID,
		Environment:    env,
		Realm:          realm,
		LocalAccountID: localAccountID,
		AuthorityType:  authorityType,
		Username:       username,
	}
}

// Key creates the key for storing accounts in the cache.
func (a Account) Key() string {
	return strings.ToLower(joinKey(a.HomeAccountID, a.Environment, a.Realm))
}

// IsAccount reports whether e is an Account with every identifying field set.
func IsAccount(e Entry) bool {
	if e == nil || e.Kind() != KindAccount {
		return false
	}
	a, ok := e.(Account)
	if !ok {
		return false
	}
	return a.HomeAccountID != "" &&
		a.Environment != "" &&
		a.Realm != "" &&
		a.LocalAccountID != "" &&
		a.Username != "" &&
		a.AuthorityType != ""
}

var errNoSubject = errors.New("id token has neither an oid nor a sub claim")

// AccountFromIDToken builds the Account that is cached alongside idToken. The token's
// claims are read without verifying its signature; the token was verified when it
// was acquired.
func AccountFromIDToken(idToken IDToken, authorityType string) (Account, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken.Secret, claims); err != nil {
		return Account{}, fmt.Errorf("id token could not be decoded: %w", err)
	}

	localID := stringClaim(claims, "oid")
	if localID == "" {
		localID, _ = claims.GetSubject()
	}
	if localID == "" {
		return Account{}, errNoSubject
	}

	username := stringClaim(claims, "preferred_username")
	if username == "" {
		username = stringClaim(claims, "upn")
	}
	if username == "" {
		username = stringClaim(claims, "email")
	}

	realm := idToken.Realm
	if realm == "" {
		realm = stringClaim(claims, "tid")
	}

	acc := NewAccount(idToken.HomeAccountID, idToken.Environment, realm, localID, authorityType, username)
	acc.Name = stringClaim(claims, "name")
	return acc, nil
}

func stringClaim(claims jwt.MapClaims, name string) string {
	s, _ := claims[name].(string)
	return s
}
