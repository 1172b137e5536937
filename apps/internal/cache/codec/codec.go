// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

// Package codec converts between the JSON document written to a storage medium and the
// bucketed in-memory view of the cache. The document layout is shared between MSAL
// versions in many languages: one top-level object per kind, each keyed by cache key.
// This cannot be changed without design that includes other SDKs.
//
// Top-level sections this package does not know are carried through Parse and Marshal
// untouched, so a document written by a newer library survives a round trip. Members of an
// entry that the entity does not model travel in its AdditionalFields.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/wedevops1/msal-cache-go/apps/internal/cache/entity"
)

// Section names in the serialized document.
const (
	SectionAccount      = "Account"
	SectionIDToken      = "IdToken"
	SectionAccessToken  = "AccessToken"
	SectionRefreshToken = "RefreshToken"
	SectionAppMetadata  = "AppMetadata"
)

// ErrMalformed is returned by Parse when the blob is not a JSON object.
var ErrMalformed = errors.New("malformed cache blob")

// Document is a parsed blob. Entries are kept as raw JSON until Decode.
type Document struct {
	Accounts      map[string]json.RawMessage
	IDTokens      map[string]json.RawMessage
	AccessTokens  map[string]json.RawMessage
	RefreshTokens map[string]json.RawMessage
	AppMetadata   map[string]json.RawMessage

	// Extra holds top-level sections that are not one of the above.
	Extra map[string]json.RawMessage
}

// NewDocument returns an empty Document.
func NewDocument() Document {
	return Document{
		Accounts:      map[string]json.RawMessage{},
		IDTokens:      map[string]json.RawMessage{},
		AccessTokens:  map[string]json.RawMessage{},
		RefreshTokens: map[string]json.RawMessage{},
		AppMetadata:   map[string]json.RawMessage{},
		Extra:         map[string]json.RawMessage{},
	}
}

func (d Document) section(name string) map[string]json.RawMessage {
	switch name {
	case SectionAccount:
		return d.Accounts
	case SectionIDToken:
		return d.IDTokens
	case SectionAccessToken:
		return d.AccessTokens
	case SectionRefreshToken:
		return d.RefreshTokens
	case SectionAppMetadata:
		return d.AppMetadata
	}
	return nil
}

// Parse reads a blob into a Document. An empty blob is an empty Document. A known
// section that is not an object is ignored.
func Parse(raw []byte) (Document, error) {
	doc := NewDocument()
	if len(bytes.TrimSpace(raw)) == 0 {
		return doc, nil
	}
	if !gjson.ValidBytes(raw) {
		return Document{}, fmt.Errorf("%w: not valid JSON", ErrMalformed)
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return Document{}, fmt.Errorf("%w: top level is a %s, not an object", ErrMalformed, root.Type)
	}

	root.ForEach(func(name, value gjson.Result) bool {
		section := doc.section(name.String())
		if section == nil {
			doc.Extra[name.String()] = json.RawMessage(value.Raw)
			return true
		}
		if !value.IsObject() {
			return true
		}
		value.ForEach(func(key, item gjson.Result) bool {
			section[key.String()] = json.RawMessage(item.Raw)
			return true
		})
		return true
	})
	return doc, nil
}

// Marshal writes the Document as a blob. Known sections are always present.
func (d Document) Marshal() ([]byte, error) {
	out := make(map[string]any, 5+len(d.Extra))
	for name, raw := range d.Extra {
		out[name] = raw
	}
	for _, name := range []string{SectionAccount, SectionIDToken, SectionAccessToken, SectionRefreshToken, SectionAppMetadata} {
		section := d.section(name)
		if section == nil {
			section = map[string]json.RawMessage{}
		}
		out[name] = section
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("cache document could not be marshaled: %w", err)
	}
	return b, nil
}

// Decode converts a Document to Buckets. Entries that cannot be decoded as their
// section's kind, or that declare a credential_type of another kind, are skipped.
func Decode(d Document) entity.Buckets {
	b := entity.NewBuckets()
	decodeSection(d.Accounts, b.Accounts, nil)
	decodeSection(d.IDTokens, b.IDTokens, []string{entity.CredentialTypeIDToken})
	decodeSection(d.AccessTokens, b.AccessTokens, []string{entity.CredentialTypeAccessToken, entity.CredentialTypeAccessTokenWithAuthScheme})
	decodeSection(d.RefreshTokens, b.RefreshTokens, []string{entity.CredentialTypeRefreshToken})
	decodeSection(d.AppMetadata, b.AppMetadata, nil)
	return b
}

func decodeSection[T entity.Entry](section map[string]json.RawMessage, into map[string]T, credentialTypes []string) {
	for key, raw := range section {
		if len(credentialTypes) > 0 && !hasCredentialType(raw, credentialTypes) {
			continue
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		into[key] = v
	}
}

// hasCredentialType reports if raw has no credential_type or one of want.
func hasCredentialType(raw json.RawMessage, want []string) bool {
	ct := gjson.GetBytes(raw, "credential_type")
	if !ct.Exists() {
		return true
	}
	for _, w := range want {
		if ct.String() == w {
			return true
		}
	}
	return false
}

// Encode converts Buckets to a Document.
func Encode(b entity.Buckets) (Document, error) {
	d := NewDocument()
	if err := encodeSection(b.Accounts, d.Accounts); err != nil {
		return Document{}, err
	}
	if err := encodeSection(b.IDTokens, d.IDTokens); err != nil {
		return Document{}, err
	}
	if err := encodeSection(b.AccessTokens, d.AccessTokens); err != nil {
		return Document{}, err
	}
	if err := encodeSection(b.RefreshTokens, d.RefreshTokens); err != nil {
		return Document{}, err
	}
	if err := encodeSection(b.AppMetadata, d.AppMetadata); err != nil {
		return Document{}, err
	}
	return d, nil
}

func encodeSection[T entity.Entry](from map[string]T, section map[string]json.RawMessage) error {
	for key, v := range from {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("cache entry %q could not be encoded: %w", key, err)
		}
		section[key] = raw
	}
	return nil
}
