package gwerrors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindHTTPStatus(t *testing.T) {
	tests := []struct {
		kind   Kind
		status int
	}{
		{KindValidation, 400},
		{KindInvalidInput, 400},
		{KindAuthentication, 401},
		{KindRateLimited, 429},
		{KindUnavailable, 503},
		{KindCircuitOpen, 503},
		{KindTimeout, 504},
		{KindInternal, 500},
		{KindUnknown, 500},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.kind.HTTPStatus(), "kind %s", tt.kind)
	}
}

func TestKindRetryable(t *testing.T) {
	retryable := []Kind{KindRateLimited, KindTimeout, KindUnavailable, KindCircuitOpen}
	for _, k := range retryable {
		assert.True(t, k.Retryable(), "kind %s should be retryable", k)
	}

	terminal := []Kind{KindValidation, KindAuthentication, KindInvalidInput, KindInternal, KindUnknown}
	for _, k := range terminal {
		assert.False(t, k.Retryable(), "kind %s should not be retryable", k)
	}
}

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("socket closed")
	err := Unavailable("upstream unreachable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "SERVICE_UNAVAILABLE")
	assert.Contains(t, err.Error(), "socket closed")
}

func TestWithRequestIDDoesNotMutate(t *testing.T) {
	base := Timeout("deadline exceeded", nil)
	stamped := base.WithRequestID("req-42")

	assert.Empty(t, base.RequestID)
	assert.Equal(t, "req-42", stamped.RequestID)
	assert.Equal(t, base.Kind, stamped.Kind)
}

func TestCircuitOpenCarriesNextAttempt(t *testing.T) {
	next := time.Now().Add(30 * time.Second)
	err := CircuitOpen("api", next)

	assert.Equal(t, KindCircuitOpen, err.Kind)
	assert.Equal(t, next, err.NextAttempt)
	assert.Contains(t, err.Message, "api")
	assert.True(t, err.Retryable())
}

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		status int
		kind   Kind
	}{
		{400, KindValidation},
		{422, KindValidation},
		{401, KindAuthentication},
		{403, KindAuthentication},
		{408, KindTimeout},
		{429, KindRateLimited},
		{502, KindUnavailable},
		{503, KindUnavailable},
		{504, KindTimeout},
		{500, KindInternal},
		{507, KindInternal},
		{418, KindUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.kind, KindForStatus(tt.status), "status %d", tt.status)
	}
}

type fakeNetError struct{ timeout bool }

func (e *fakeNetError) Error() string   { return "fake net error" }
func (e *fakeNetError) Timeout() bool   { return e.timeout }
func (e *fakeNetError) Temporary() bool { return false }

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{"nil stays nil", nil, ""},
		{"already normalized", Authentication("bad key"), KindAuthentication},
		{"wrapped normalized", fmt.Errorf("call failed: %w", RateLimited("slow down", time.Second)), KindRateLimited},
		{"context deadline", context.DeadlineExceeded, KindTimeout},
		{"context canceled", context.Canceled, KindTimeout},
		{"net timeout", &fakeNetError{timeout: true}, KindTimeout},
		{"net failure", &fakeNetError{}, KindUnavailable},
		{"url error", &url.Error{Op: "Get", URL: "http://api", Err: errors.New("connection refused")}, KindUnavailable},
		{"unclassified", errors.New("boom"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.err)
			if tt.err == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.kind, got.Kind)
		})
	}
}

var _ net.Error = (*fakeNetError)(nil)

func TestPayloadShape(t *testing.T) {
	err := Validation("invalid arguments", FieldError{Field: "limit", Message: "must be at most 100"})
	stamped := err.WithRequestID("req-7")

	raw, jsonErr := json.Marshal(stamped.Payload())
	require.NoError(t, jsonErr)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, false, decoded["success"])
	errObj := decoded["error"].(map[string]interface{})
	assert.Equal(t, "VALIDATION_ERROR", errObj["code"])
	assert.Equal(t, "req-7", errObj["requestId"])
	assert.Equal(t, false, errObj["retryable"])

	details := errObj["details"].([]interface{})
	require.Len(t, details, 1)
	first := details[0].(map[string]interface{})
	assert.Equal(t, "limit", first["field"])
}

func TestPayloadOptionalFields(t *testing.T) {
	rl := RateLimited("throttled", 1500*time.Millisecond).Payload()
	assert.Equal(t, int64(1500), rl.Error.RetryAfterMs)
	assert.Empty(t, rl.Error.NextAttemptAt)

	co := CircuitOpen("edgeFunctions", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)).Payload()
	assert.Equal(t, "2025-03-01T10:00:00Z", co.Error.NextAttemptAt)
	assert.Zero(t, co.Error.RetryAfterMs)

	plain, err := json.Marshal(Internal("boom", nil).Payload())
	require.NoError(t, err)
	assert.NotContains(t, string(plain), "retryAfterMs")
	assert.NotContains(t, string(plain), "nextAttemptAt")
}
