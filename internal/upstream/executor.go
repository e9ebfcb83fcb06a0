// Package upstream holds the HTTP clients for the two services the gateway
// fronts: the primary REST API and the serverless functions domain. Every
// call runs inside the upstream's circuit breaker, with per-attempt
// deadlines, bounded exponential-backoff retries, and normalization of
// failures into the gateway error taxonomy.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"lanonasis-gateway/internal/gwerrors"
	"lanonasis-gateway/pkg/logging"
)

// maxBodyBytes caps how much of an upstream response is read into memory.
const maxBodyBytes = 16 << 20

// Response is one successful upstream exchange.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// statusError marks a non-2xx response inside the retry loop. It keeps the
// body so the final normalization can surface the upstream's own message.
type statusError struct {
	status     int
	body       []byte
	retryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("upstream status %d", e.status)
}

// retryableStatus lists the transient statuses worth another attempt. Other
// 4xx responses are contract failures and repeat deterministically.
func retryableStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Executor issues HTTP requests with a per-attempt deadline and a bounded
// retry budget. maxRetries counts additional attempts after the first.
type Executor struct {
	client     *http.Client
	timeout    time.Duration
	maxRetries int
	baseDelay  time.Duration
}

// NewExecutor builds an executor around a plain http.Client. The per-attempt
// deadline comes from timeout; the backoff sequence starts at baseDelay.
func NewExecutor(timeout time.Duration, maxRetries int, baseDelay time.Duration) *Executor {
	return &Executor{
		client:     &http.Client{},
		timeout:    timeout,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}
}

// Do runs the request produced by build until it succeeds, the retry budget
// runs out, or the failure is permanent. build is called once per attempt so
// request bodies can be re-read. The returned error is already normalized.
func (e *Executor) Do(ctx context.Context, upstreamName string, build func(ctx context.Context) (*http.Request, error)) (*Response, error) {
	bo := &floorBackOff{inner: e.newExponential()}
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(e.maxRetries)), ctx)

	var out *Response
	attempt := 0
	operation := func() error {
		attempt++
		resp, err := e.attempt(ctx, build)
		if err != nil {
			var serr *statusError
			if errors.As(err, &serr) && serr.retryAfter > 0 {
				bo.floor = serr.retryAfter
			}
			return err
		}
		out = resp
		return nil
	}
	notify := func(err error, delay time.Duration) {
		logging.Warn("Upstream", "Retrying %s call in %s after attempt %d: %v",
			upstreamName, delay.Round(time.Millisecond), attempt, err)
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, normalizeExchange(err)
	}
	return out, nil
}

// attempt performs one exchange. Retryable failures return plain errors;
// permanent ones are wrapped in backoff.Permanent to stop the loop.
func (e *Executor) attempt(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := build(attemptCtx)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		serr := &statusError{status: resp.StatusCode, body: body}
		if resp.StatusCode == http.StatusTooManyRequests {
			serr.retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		}
		if !retryableStatus(resp.StatusCode) {
			return nil, backoff.Permanent(serr)
		}
		return nil, serr
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func (e *Executor) newExponential() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.baseDelay
	bo.MaxInterval = 30 * time.Second
	// The retry budget and the caller's context bound the loop.
	bo.MaxElapsedTime = 0
	return bo
}

// normalizeExchange collapses the final retry-loop error into the taxonomy.
func normalizeExchange(err error) *gwerrors.Error {
	var serr *statusError
	if errors.As(err, &serr) {
		return gwerrors.FromStatus(serr.status, upstreamMessage(serr.status, serr.body), serr.retryAfter)
	}
	return gwerrors.Normalize(err)
}

// upstreamMessage pulls a human-readable message out of an error body,
// accepting the common {"message": …} and {"error": …} shapes.
func upstreamMessage(status int, body []byte) string {
	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if len(payload.Error) > 0 {
			var s string
			if json.Unmarshal(payload.Error, &s) == nil && s != "" {
				return s
			}
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(payload.Error, &nested) == nil && nested.Message != "" {
				return nested.Message
			}
		}
	}
	return fmt.Sprintf("upstream returned status %d", status)
}

// parseRetryAfter reads a Retry-After header, either delta-seconds or an
// HTTP-date.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

// floorBackOff raises the next delay to a server-advertised minimum, then
// reverts to the wrapped policy.
type floorBackOff struct {
	inner backoff.BackOff
	floor time.Duration
}

func (f *floorBackOff) NextBackOff() time.Duration {
	d := f.inner.NextBackOff()
	if d == backoff.Stop {
		return d
	}
	if f.floor > d {
		d = f.floor
	}
	f.floor = 0
	return d
}

func (f *floorBackOff) Reset() {
	f.floor = 0
	f.inner.Reset()
}
