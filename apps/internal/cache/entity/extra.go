// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

package entity

import (
	"encoding/json"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// knownFields caches the JSON names of each entity type's fields.
var knownFields sync.Map // reflect.Type -> map[string]bool

func fieldNames(t reflect.Type) map[string]bool {
	if v, ok := knownFields.Load(t); ok {
		return v.(map[string]bool)
	}
	names := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		name, _, _ := strings.Cut(tag, ",")
		if name == "-" || !t.Field(i).IsExported() {
			continue
		}
		if name == "" {
			name = t.Field(i).Name
		}
		names[name] = true
	}
	knownFields.Store(t, names)
	return names
}

// additionalFields returns the members of the JSON object b that t has no field for.
// It returns nil when there are none.
func additionalFields(b []byte, t reflect.Type) map[string]json.RawMessage {
	known := fieldNames(t)
	var extra map[string]json.RawMessage
	gjson.ParseBytes(b).ForEach(func(name, value gjson.Result) bool {
		if known[name.String()] {
			return true
		}
		if extra == nil {
			extra = map[string]json.RawMessage{}
		}
		extra[name.String()] = json.RawMessage(value.Raw)
		return true
	})
	return extra
}

// withAdditionalFields adds extra to the JSON object b. Members already in b win.
func withAdditionalFields(b []byte, extra map[string]json.RawMessage) ([]byte, error) {
	names := make([]string, 0, len(extra))
	for name := range extra {
		names = append(names, name)
	}
	slices.Sort(names)

	var err error
	for _, name := range names {
		path := gjson.Escape(name)
		if gjson.GetBytes(b, path).Exists() {
			continue
		}
		if b, err = sjson.SetRawBytes(b, path, extra[name]); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Account) UnmarshalJSON(b []byte) error {
	type plain Account
	if err := json.Unmarshal(b, (*plain)(a)); err != nil {
		return err
	}
	a.AdditionalFields = additionalFields(b, reflect.TypeFor[plain]())
	return nil
}

// MarshalJSON implements json.Marshaler.
func (a Account) MarshalJSON() ([]byte, error) {
	type plain Account
	b, err := json.Marshal(plain(a))
	if err != nil {
		return nil, err
	}
	return withAdditionalFields(b, a.AdditionalFields)
}

// UnmarshalJSON implements json.Unmarshaler.
func (i *IDToken) UnmarshalJSON(b []byte) error {
	type plain IDToken
	if err := json.Unmarshal(b, (*plain)(i)); err != nil {
		return err
	}
	i.AdditionalFields = additionalFields(b, reflect.TypeFor[plain]())
	return nil
}

// MarshalJSON implements json.Marshaler.
func (i IDToken) MarshalJSON() ([]byte, error) {
	type plain IDToken
	b, err := json.Marshal(plain(i))
	if err != nil {
		return nil, err
	}
	return withAdditionalFields(b, i.AdditionalFields)
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *AccessToken) UnmarshalJSON(b []byte) error {
	type plain AccessToken
	if err := json.Unmarshal(b, (*plain)(a)); err != nil {
		return err
	}
	a.AdditionalFields = additionalFields(b, reflect.TypeFor[plain]())
	return nil
}

// MarshalJSON implements json.Marshaler.
func (a AccessToken) MarshalJSON() ([]byte, error) {
	type plain AccessToken
	b, err := json.Marshal(plain(a))
	if err != nil {
		return nil, err
	}
	return withAdditionalFields(b, a.AdditionalFields)
}

// UnmarshalJSON implements json.Unmarshaler.
func (rt *RefreshToken) UnmarshalJSON(b []byte) error {
	type plain RefreshToken
	if err := json.Unmarshal(b, (*plain)(rt)); err != nil {
		return err
	}
	rt.AdditionalFields = additionalFields(b, reflect.TypeFor[plain]())
	return nil
}

// MarshalJSON implements json.Marshaler.
func (rt RefreshToken) MarshalJSON() ([]byte, error) {
	type plain RefreshToken
	b, err := json.Marshal(plain(rt))
	if err != nil {
		return nil, err
	}
	return withAdditionalFields(b, rt.AdditionalFields)
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *AppMetadata) UnmarshalJSON(b []byte) error {
	type plain AppMetadata
	if err := json.Unmarshal(b, (*plain)(a)); err != nil {
		return err
	}
	a.AdditionalFields = additionalFields(b, reflect.TypeFor[plain]())
	return nil
}

// MarshalJSON implements json.Marshaler.
func (a AppMetadata) MarshalJSON() ([]byte, error) {
	type plain AppMetadata
	b, err := json.Marshal(plain(a))
	if err != nil {
		return nil, err
	}
	return withAdditionalFields(b, a.AdditionalFields)
}
