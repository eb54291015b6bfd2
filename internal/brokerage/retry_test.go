package brokerage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/keel-lab/keel-trading/internal/logger"
	"github.com/keel-lab/keel-trading/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type GatewayTestSuite struct {
	suite.Suite

	delays []time.Duration
}

func TestGatewaySuite(t *testing.T) {
	suite.Run(t, new(GatewayTestSuite))
}

// newGateway builds a gateway whose sleeps are recorded instead of slept.
func (suite *GatewayTestSuite) newGateway() *Gateway {
	suite.delays = nil

	g := NewGateway(http.DefaultClient, DefaultRetryPolicy(), logger.NewNopLogger())
	g.sleep = func(_ context.Context, d time.Duration) error {
		suite.delays = append(suite.delays, d)

		return nil
	}

	return g
}

func (suite *GatewayTestSuite) TestDefaultRetryPolicy() {
	policy := DefaultRetryPolicy()
	suite.Equal(3, policy.MaxAttempts)
	suite.Equal(time.Second, policy.BaseDelay)
	suite.True(policy.Retryable(http.StatusTooManyRequests, nil))
	suite.False(policy.Retryable(http.StatusBadRequest, nil))
	suite.False(policy.Retryable(http.StatusInternalServerError, nil))
	suite.True(policy.Retryable(0, io.EOF))
}

func (suite *GatewayTestSuite) TestExactlyThreeAttemptsOnPersistentRateLimit() {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	g := suite.newGateway()

	_, err := g.Do(context.Background(), Request{Method: http.MethodGet, URL: server.URL})
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMaxRetriesExceeded))
	suite.Equal(int32(3), attempts.Load())
	suite.Equal([]time.Duration{time.Second, 2 * time.Second}, suite.delays)
}

func (suite *GatewayTestSuite) TestRecoversAfterRateLimits() {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)

			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	g := suite.newGateway()

	resp, err := g.Do(context.Background(), Request{Method: http.MethodGet, URL: server.URL})
	suite.Require().NoError(err)

	defer resp.Body.Close()

	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Equal(int32(3), attempts.Load())
}

func (suite *GatewayTestSuite) TestNonRetryableStatusSurfacedImmediately() {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	g := suite.newGateway()

	resp, err := g.Do(context.Background(), Request{Method: http.MethodPost, URL: server.URL})
	suite.Require().NoError(err)

	defer resp.Body.Close()

	suite.Equal(http.StatusBadRequest, resp.StatusCode)
	suite.Equal(int32(1), attempts.Load())
	suite.Empty(suite.delays)
}

func (suite *GatewayTestSuite) TestTransportErrorsRetriedToExhaustion() {
	// Closing the server up front turns every attempt into a connection error.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	g := suite.newGateway()

	_, err := g.Do(context.Background(), Request{Method: http.MethodGet, URL: server.URL})
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMaxRetriesExceeded))
	suite.Len(suite.delays, 2)
}

func (suite *GatewayTestSuite) TestBodyReplayedOnEveryAttempt() {
	var bodies []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(payload))
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	g := suite.newGateway()

	_, err := g.Do(context.Background(), Request{
		Method: http.MethodPost,
		URL:    server.URL,
		Body:   []byte(`{"orderId":"abc"}`),
	})
	suite.Require().Error(err)
	suite.Equal([]string{`{"orderId":"abc"}`, `{"orderId":"abc"}`, `{"orderId":"abc"}`}, bodies)
}

func (suite *GatewayTestSuite) TestCancelledContextStopsRetrying() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())

	g := NewGateway(http.DefaultClient, DefaultRetryPolicy(), logger.NewNopLogger())
	g.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()

		return ctx.Err()
	}

	_, err := g.Do(ctx, Request{Method: http.MethodGet, URL: server.URL})
	suite.ErrorIs(err, context.Canceled)
}

func (suite *GatewayTestSuite) TestSleepContextHonorsCancellation() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sleepContext(ctx, time.Minute)
	suite.ErrorIs(err, context.Canceled)

	start := time.Now()
	suite.NoError(sleepContext(context.Background(), time.Millisecond))
	suite.Less(time.Since(start), time.Second)
}
