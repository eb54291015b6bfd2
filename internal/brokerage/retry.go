package brokerage

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/keel-lab/keel-trading/internal/logger"
	"github.com/keel-lab/keel-trading/pkg/errors"
	"go.uber.org/zap"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Second
)

// RetryPolicy bounds the retries applied to outbound brokerage calls. The
// delay before retry n is BaseDelay doubled n-1 times, so the default policy
// sleeps 1s and 2s between its three attempts.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// Retryable decides from the response status (when err is nil) or the
	// transport error whether another attempt may help.
	Retryable func(status int, err error) bool
}

// DefaultRetryPolicy retries rate-limit responses and transport errors.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: defaultMaxAttempts,
		BaseDelay:   defaultBaseDelay,
		Retryable:   RetryOnRateLimitOrTransport,
	}
}

// RetryOnRateLimitOrTransport treats 429 responses and connection-level
// failures as transient. Every other HTTP status is surfaced immediately.
func RetryOnRateLimitOrTransport(status int, err error) bool {
	if err != nil {
		return true
	}

	return status == http.StatusTooManyRequests
}

// Request is one replayable HTTP call. The body is kept as bytes so every
// retry attempt sends an identical payload.
type Request struct {
	Method string
	URL    string
	Body   []byte
	Header http.Header
}

// Gateway executes brokerage HTTP calls under a retry policy.
type Gateway struct {
	client *http.Client
	policy RetryPolicy
	logger *logger.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewGateway creates a gateway around the given HTTP client. A nil client
// falls back to http.DefaultClient.
func NewGateway(client *http.Client, policy RetryPolicy, log *logger.Logger) *Gateway {
	if client == nil {
		client = http.DefaultClient
	}

	return &Gateway{
		client: client,
		policy: policy,
		logger: log,
		sleep:  sleepContext,
	}
}

// Do sends the request, retrying per the policy. Responses with retryable
// statuses are drained and retried; every other response is returned to the
// caller regardless of status, since only the caller knows how to map it.
// Exhausting all attempts returns an ErrCodeMaxRetriesExceeded error.
func (g *Gateway) Do(ctx context.Context, req Request) (*http.Response, error) {
	lastStatus := 0

	var lastErr error

	for attempt := 0; attempt < g.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := g.policy.BaseDelay << (attempt - 1)

			g.logger.Debug("retrying brokerage request",
				zap.String("method", req.Method),
				zap.String("url", req.URL),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay))

			if err := g.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeBrokerageRequest, "failed to build brokerage request", err)
		}

		for key, values := range req.Header {
			for _, value := range values {
				httpReq.Header.Add(key, value)
			}
		}

		resp, err := g.client.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			if !g.policy.Retryable(0, err) {
				return nil, errors.Wrap(errors.ErrCodeBrokerageRequest, "brokerage request failed", err)
			}

			lastErr = err

			g.logger.Warn("transient brokerage request failure",
				zap.String("method", req.Method),
				zap.String("url", req.URL),
				zap.Error(err))

			continue
		}

		if g.policy.Retryable(resp.StatusCode, nil) {
			resp.Body.Close()
			lastStatus = resp.StatusCode
			lastErr = nil

			g.logger.Warn("retryable brokerage response",
				zap.String("method", req.Method),
				zap.String("url", req.URL),
				zap.Int("status", resp.StatusCode))

			continue
		}

		return resp, nil
	}

	if lastErr != nil {
		return nil, errors.Wrapf(errors.ErrCodeMaxRetriesExceeded, lastErr,
			"%s %s failed after %d attempts", req.Method, req.URL, g.policy.MaxAttempts)
	}

	return nil, errors.Newf(errors.ErrCodeMaxRetriesExceeded,
		"%s %s failed after %d attempts (last status %d)",
		req.Method, req.URL, g.policy.MaxAttempts, lastStatus)
}

// sleepContext waits for the duration or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
