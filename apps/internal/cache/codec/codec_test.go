// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

package codec

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kylelemons/godebug/pretty"

	"github.com/wedevops1/msal-cache-go/apps/internal/cache/entity"
)

var (
	cachedAt  = time.Unix(1592049600, 0).UTC()
	expiresOn = time.Unix(1592053200, 0).UTC()
)

func testBuckets() entity.Buckets {
	acc := entity.NewAccount("uid.utid", "login.windows.net", "contoso", "object1234", entity.AuthorityTypeAAD, "John Doe")
	idt := entity.NewIDToken("uid.utid", "login.windows.net", "contoso", "my_client_id", "header.payload.signature")
	at := entity.NewAccessToken("uid.utid", "login.windows.net", "contoso", "my_client_id", cachedAt, expiresOn, expiresOn, "openid user.read", "an access token")
	rt := entity.NewRefreshToken("uid.utid", "login.windows.net", "my_client_id", "a refresh token", "1")
	app := entity.NewAppMetadata("1", "my_client_id", "login.windows.net")

	b := entity.NewBuckets()
	b.Accounts[acc.Key()] = acc
	b.IDTokens[idt.Key()] = idt
	b.AccessTokens[at.Key()] = at
	b.RefreshTokens[rt.Key()] = rt
	b.AppMetadata[app.Key()] = app
	return b
}

func TestRoundTrip(t *testing.T) {
	want := testBuckets()

	doc, err := Encode(want)
	if err != nil {
		t.Fatalf("TestRoundTrip: Encode: got err == %s, want err == nil", err)
	}
	blob, err := doc.Marshal()
	if err != nil {
		t.Fatalf("TestRoundTrip: Marshal: got err == %s, want err == nil", err)
	}
	parsed, err := Parse(blob)
	if err != nil {
		t.Fatalf("TestRoundTrip: Parse: got err == %s, want err == nil", err)
	}

	if diff := pretty.Compare(want, Decode(parsed)); diff != "" {
		t.Errorf("TestRoundTrip: -want/+got:\n%s", diff)
	}
	if diff := pretty.Compare(want, Decode(doc)); diff != "" {
		t.Errorf("TestRoundTrip(without blob): -want/+got:\n%s", diff)
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		desc string
		blob string
	}{
		{desc: "truncated", blob: `{"Account": {`},
		{desc: "array", blob: `[1, 2]`},
		{desc: "string", blob: `"cache"`},
	}
	for _, test := range tests {
		_, err := Parse([]byte(test.blob))
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("TestParseMalformed(%s): got err == %v, want ErrMalformed", test.desc, err)
		}
	}
}

func TestParseEmpty(t *testing.T) {
	for _, blob := range []string{"", "  \n", "{}"} {
		doc, err := Parse([]byte(blob))
		if err != nil {
			t.Fatalf("TestParseEmpty(%q): got err == %s, want err == nil", blob, err)
		}
		if n := Decode(doc).Len(); n != 0 {
			t.Errorf("TestParseEmpty(%q): got %d entries, want 0", blob, n)
		}
	}
}

func TestDecodeSkipsBadEntries(t *testing.T) {
	blob := `{
		"Account": {
			"good": {"home_account_id": "hid", "environment": "env", "realm": "realm"},
			"bad": {"home_account_id": 42}
		},
		"AccessToken": {
			"misfiled": {"credential_type": "IdToken", "secret": "s"},
			"pop": {"credential_type": "AccessToken_With_AuthScheme", "secret": "s", "cached_at": "100"},
			"badtime": {"credential_type": "AccessToken", "expires_on": "tomorrow"}
		},
		"IdToken": "not an object"
	}`

	doc, err := Parse([]byte(blob))
	if err != nil {
		t.Fatalf("TestDecodeSkipsBadEntries: got err == %s, want err == nil", err)
	}
	got := Decode(doc)

	want := entity.NewBuckets()
	want.Accounts["good"] = entity.Account{HomeAccountID: "hid", Environment: "env", Realm: "realm"}
	want.AccessTokens["pop"] = entity.AccessToken{
		CredentialType: entity.CredentialTypeAccessTokenWithAuthScheme,
		Secret:         "s",
		CachedAt:       entity.NewUnix(time.Unix(100, 0)),
	}
	if diff := pretty.Compare(want, got); diff != "" {
		t.Errorf("TestDecodeSkipsBadEntries: -want/+got:\n%s", diff)
	}
}

func TestExtraSectionsSurvive(t *testing.T) {
	blob := `{"Account": {}, "FutureKind": {"k": {"v": 1}}, "Version": 2}`

	doc, err := Parse([]byte(blob))
	if err != nil {
		t.Fatalf("TestExtraSectionsSurvive: got err == %s, want err == nil", err)
	}
	out, err := doc.Marshal()
	if err != nil {
		t.Fatalf("TestExtraSectionsSurvive: got err == %s, want err == nil", err)
	}

	var got map[string]json.RawMessage
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("TestExtraSectionsSurvive: output is not JSON: %s", err)
	}
	want := map[string]string{
		"FutureKind":        `{"k":{"v":1}}`,
		"Version":           `2`,
		SectionAccount:      `{}`,
		SectionIDToken:      `{}`,
		SectionAccessToken:  `{}`,
		SectionRefreshToken: `{}`,
		SectionAppMetadata:  `{}`,
	}
	gotStrings := map[string]string{}
	for k, v := range got {
		gotStrings[k] = string(v)
	}
	if diff := pretty.Compare(want, gotStrings); diff != "" {
		t.Errorf("TestExtraSectionsSurvive: -want/+got:\n%s", diff)
	}
}

func TestEntryFieldsSurvive(t *testing.T) {
	blob := `{
		"Account": {"uid.utid-login.windows.net-contoso": {"home_account_id": "uid.utid", "environment": "login.windows.net", "realm": "contoso", "local_account_id": "object1234", "username": "John Doe", "authority_type": "MSSTS", "last_modified_on": "", "extra": "this_is_extra"}},
		"RefreshToken": {"uid.utid-login.windows.net-refreshtoken-my_client_id--": {"home_account_id": "uid.utid", "environment": "login.windows.net", "credential_type": "RefreshToken", "client_id": "my_client_id", "secret": "a refresh token", "extra": {"from": "another library"}}},
		"AppMetadata": {"appmetadata-login.windows.net-my_client_id": {"client_id": "my_client_id", "environment": "login.windows.net", "extra": 7}}
	}`

	doc, err := Parse([]byte(blob))
	if err != nil {
		t.Fatalf("TestEntryFieldsSurvive: got err == %s, want err == nil", err)
	}
	b := Decode(doc)
	if got := string(b.Accounts["uid.utid-login.windows.net-contoso"].AdditionalFields["extra"]); got != `"this_is_extra"` {
		t.Errorf("TestEntryFieldsSurvive: got account extra %s, want %q", got, `"this_is_extra"`)
	}

	encoded, err := Encode(b)
	if err != nil {
		t.Fatalf("TestEntryFieldsSurvive: Encode: got err == %s, want err == nil", err)
	}
	out, err := encoded.Marshal()
	if err != nil {
		t.Fatalf("TestEntryFieldsSurvive: Marshal: got err == %s, want err == nil", err)
	}

	for _, section := range []string{SectionAccount, SectionRefreshToken, SectionAppMetadata} {
		var want, got map[string]any
		if err := json.Unmarshal(doc.section(section)[firstKey(doc.section(section))], &want); err != nil {
			t.Fatal(err)
		}
		reparsed, err := Parse(out)
		if err != nil {
			t.Fatalf("TestEntryFieldsSurvive(%s): got err == %s, want err == nil", section, err)
		}
		if err := json.Unmarshal(reparsed.section(section)[firstKey(doc.section(section))], &got); err != nil {
			t.Fatalf("TestEntryFieldsSurvive(%s): entry missing from %s", section, out)
		}
		if diff := pretty.Compare(want, got); diff != "" {
			t.Errorf("TestEntryFieldsSurvive(%s): -want/+got:\n%s", section, diff)
		}
	}
}

func firstKey(m map[string]json.RawMessage) string {
	for k := range m {
		return k
	}
	return ""
}
