// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

package entity

import (
	"strings"
	"time"
)

// ServerTelemetry accumulates request failures and cache hits between token requests.
// FailedRequests holds (apiID, correlationID) pairs, flattened.
type ServerTelemetry struct {
	FailedRequests []string `json:"failedRequests"`
	Errors         []string `json:"errors"`
	CacheHits      int      `json:"cacheHits"`
}

// Kind implements Entry.
func (ServerTelemetry) Kind() Kind { return KindServerTelemetry }

// NewServerTelemetry returns telemetry with nothing recorded.
func NewServerTelemetry() ServerTelemetry {
	return ServerTelemetry{FailedRequests: []string{}, Errors: []string{}}
}

// ServerTelemetryKey is the key telemetry for clientID is stored under.
func ServerTelemetryKey(clientID string) string {
	return joinKey(serverTelemetryPrefix, clientID)
}

// IsServerTelemetry reports whether e is ServerTelemetry stored under a telemetry key.
func IsServerTelemetry(key string, e Entry) bool {
	if e == nil || e.Kind() != KindServerTelemetry || !strings.HasPrefix(key, serverTelemetryPrefix) {
		return false
	}
	t, ok := e.(ServerTelemetry)
	return ok && len(t.FailedRequests)%2 == 0 && t.CacheHits >= 0
}

// Throttling records that the server asked the client to back off.
type Throttling struct {
	ThrottleTime int64    `json:"throttleTime"`
	Error        string   `json:"error,omitempty"`
	ErrorCodes   []string `json:"errorCodes,omitempty"`
	ErrorMessage string   `json:"errorMessage,omitempty"`
	SubError     string   `json:"subError,omitempty"`
}

// Kind implements Entry.
func (Throttling) Kind() Kind { return KindThrottling }

// ThrottlingKey is the key a throttling record for one request shape is stored under.
func ThrottlingKey(clientID, authority string, scopes []string, homeAccountID string) string {
	return throttlingPrefix + "." + joinKey(clientID, authority, strings.Join(scopes, " "), homeAccountID)
}

// Active reports whether requests are still throttled at now. ThrottleTime is in
// unix milliseconds.
func (t Throttling) Active(now time.Time) bool {
	return now.UnixMilli() < t.ThrottleTime
}

// IsThrottling reports whether e is a Throttling record stored under a throttling key.
func IsThrottling(key string, e Entry) bool {
	if e == nil || e.Kind() != KindThrottling || !strings.HasPrefix(key, throttlingPrefix) {
		return false
	}
	t, ok := e.(Throttling)
	return ok && t.ThrottleTime > 0
}
