package brokerage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/keel-lab/keel-trading/internal/logger"
	"github.com/keel-lab/keel-trading/pkg/errors"
	"go.uber.org/zap"
)

const (
	// tokenRefreshSkew is how long before expiry a cached token is treated
	// as stale and refreshed.
	tokenRefreshSkew = 5 * time.Minute

	// defaultTokenValidityMinutes is the validity window requested when the
	// config leaves it unset.
	defaultTokenValidityMinutes = 60
)

// TokenManagerConfig configures the access token lifecycle.
type TokenManagerConfig struct {
	BaseURL           string
	Secret            string
	ValidityInMinutes int
	// Clock overrides time.Now, used by tests to step through expiry.
	Clock func() time.Time
}

// TokenManager caches one bearer token and refreshes it when it is missing,
// within tokenRefreshSkew of expiry, or when a refresh is forced. The token
// request itself goes through the retrying gateway, so rate limits are
// retried there; the manager adds no retry loop of its own. Safe for
// concurrent use by multiple deployment loops.
type TokenManager struct {
	mu sync.Mutex

	baseURL  string
	secret   string
	validity int
	gateway  *Gateway
	logger   *logger.Logger
	now      func() time.Time

	token  string
	expiry time.Time
}

func NewTokenManager(config TokenManagerConfig, gateway *Gateway, log *logger.Logger) *TokenManager {
	validity := config.ValidityInMinutes
	if validity <= 0 {
		validity = defaultTokenValidityMinutes
	}

	now := config.Clock
	if now == nil {
		now = time.Now
	}

	return &TokenManager{
		baseURL:  config.BaseURL,
		secret:   config.Secret,
		validity: validity,
		gateway:  gateway,
		logger:   log,
		now:      now,
	}
}

// GetToken returns a bearer token that is valid for at least tokenRefreshSkew
// from now, fetching a fresh one when needed or when forceRefresh is set.
func (m *TokenManager) GetToken(ctx context.Context, forceRefresh bool) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !forceRefresh && m.token != "" && m.now().Before(m.expiry.Add(-tokenRefreshSkew)) {
		return m.token, nil
	}

	token, err := m.fetchToken(ctx)
	if err != nil {
		return "", err
	}

	m.token = token
	m.expiry = m.now().Add(time.Duration(m.validity) * time.Minute)

	m.logger.Debug("fetched brokerage access token",
		zap.Time("expiry", m.expiry),
		zap.Bool("forced", forceRefresh))

	return m.token, nil
}

func (m *TokenManager) fetchToken(ctx context.Context) (string, error) {
	body, err := json.Marshal(tokenRequest{
		ValidityInMinutes: m.validity,
		Secret:            m.secret,
	})
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeBrokerageRequest, "failed to encode token request", err)
	}

	resp, err := m.gateway.Do(ctx, Request{
		Method: http.MethodPost,
		URL:    m.baseURL + "/access-tokens",
		Body:   body,
		Header: jsonHeader(),
	})
	if err != nil {
		return "", err
	}

	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", errors.New(errors.ErrCodeAuthenticationFailed, "brokerage rejected credentials")
	case resp.StatusCode >= 400:
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return "", errors.Newf(errors.ErrCodeBrokerageRequest,
			"token request returned status %d: %s", resp.StatusCode, payload)
	}

	var decoded tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", errors.Wrap(errors.ErrCodeBrokerageRequest, "failed to decode token response", err)
	}

	if decoded.AccessToken == "" {
		return "", errors.New(errors.ErrCodeAuthenticationFailed, "brokerage returned an empty access token")
	}

	return decoded.AccessToken, nil
}

func jsonHeader() http.Header {
	header := make(http.Header)
	header.Set("Content-Type", "application/json")

	return header
}
