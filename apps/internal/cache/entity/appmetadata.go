// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

package entity

import (
	"encoding/json"
	"strings"
)

// AppMetadata is the JSON representation of application metadata for encoding to storage.
type AppMetadata struct {
	ClientID    string `json:"client_id,omitempty"`
	Environment string `json:"environment,omitempty"`
	FamilyID    string `json:"family_id,omitempty"`

	// AdditionalFields holds members written by other libraries, kept for the next write.
	AdditionalFields map[string]json.RawMessage `json:"-"`
}

// Kind implements Entry.
func (AppMetadata) Kind() Kind { return KindAppMetadata }

// NewAppMetadata is the constructor for AppMetadata.
func NewAppMetadata(familyID, clientID, environment string) AppMetadata {
	return AppMetadata{
		FamilyID:    familyID,
		ClientID:    clientID,
		Environment: environment,
	}
}

// Key outputs the key that can be used to uniquely look up this entry in a map.
func (a AppMetadata) Key() string {
	return strings.ToLower(joinKey(appMetadataPrefix, a.Environment, a.ClientID))
}

// IsAppMetadata reports whether e is AppMetadata naming both a client and an environment.
func IsAppMetadata(e Entry) bool {
	if e == nil || e.Kind() != KindAppMetadata {
		return false
	}
	a, ok := e.(AppMetadata)
	return ok && a.ClientID != "" && a.Environment != ""
}
