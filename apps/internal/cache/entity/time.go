// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Unix is a time.Time that travels as a quoted string of unix seconds, which is how
// every MSAL library writes timestamps into the shared cache. A zero Unix is written
// as an empty string.
type Unix struct {
	T time.Time
}

// NewUnix truncates t to whole seconds in UTC.
func NewUnix(t time.Time) Unix {
	if t.IsZero() {
		return Unix{}
	}
	return Unix{T: time.Unix(t.Unix(), 0).UTC()}
}

// IsZero reports whether u holds no time.
func (u Unix) IsZero() bool {
	return u.T.IsZero()
}

// MarshalJSON implements encoding/json.Marshaler.
func (u Unix) MarshalJSON() ([]byte, error) {
	if u.T.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(strconv.Quote(strconv.FormatInt(u.T.Unix(), 10))), nil
}

// UnmarshalJSON implements encoding/json.Unmarshaler. Bare numbers are accepted as
// well as strings since some writers emit them unquoted.
func (u *Unix) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		u.T = time.Time{}
		return nil
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("unix time(%s) could not be converted from string to int: %w", string(b), err)
	}
	u.T = time.Unix(i, 0).UTC()
	return nil
}
