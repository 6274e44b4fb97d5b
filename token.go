package metadata

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

// Token is a short-lived credential for authenticated calls to the
// metadata service. Tokens are immutable; a refresh installs a new one.
type Token struct {
	Value         string
	ExpirySeconds int
	Created       time.Time
}

// ExpiresAt returns the moment the token stops being usable. The clock
// starts when the token request is issued, not when the service
// confirms it.
func (t *Token) ExpiresAt() time.Time {
	return t.Created.Add(time.Duration(t.ExpirySeconds) * time.Second)
}

// GenerateToken asks the service for a fresh token valid for
// expirySeconds. Values of zero or less request the client's configured
// default lifetime. The generated token is NOT installed on the client;
// use RefreshToken or SetToken for that.
func (c *Client) GenerateToken(ctx context.Context, expirySeconds int) (*Token, error) {
	if expirySeconds <= 0 {
		expirySeconds = c.managedExpirySeconds
	}

	created := time.Now()

	body, err := c.apiCall(ctx, apiRequest{
		Method:      http.MethodPut,
		Path:        "/token",
		ContentType: contentTypeText,
		Headers: map[string]string{
			"Metadata-Token-Expiry-Seconds": strconv.Itoa(expirySeconds),
		},
	})
	if err != nil {
		return nil, err
	}

	return &Token{Value: string(body), ExpirySeconds: expirySeconds, Created: created}, nil
}

// RefreshToken generates a new token, installs it as the client's
// current token and moves the managed expiry deadline forward. This is
// the only path that updates the managed expiry.
func (c *Client) RefreshToken(ctx context.Context, expirySeconds int) (*Token, error) {
	token, err := c.GenerateToken(ctx, expirySeconds)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.token = token.Value
	c.managedExpiry = token.ExpiresAt()
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.tokenRefreshes.Inc()
	}
	c.log.V(1).Info("token refreshed", "expiresAt", token.ExpiresAt())

	return token, nil
}

// SetToken installs a caller-supplied token as the client's current token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the token currently used by the client, or the empty
// string when none is set.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// validateToken refreshes a missing or expired token when the client
// manages tokens, and fails with ErrNoToken when no token is available
// afterwards. Expiry is inclusive: a token is stale from its deadline
// onwards. Concurrent callers may race into redundant refreshes; that
// is benign token churn, not a correctness problem.
func (c *Client) validateToken(ctx context.Context) error {
	c.mu.Lock()
	stale := c.token == "" || (!c.managedExpiry.IsZero() && !time.Now().Before(c.managedExpiry))
	c.mu.Unlock()

	if c.managedToken && stale {
		if _, err := c.RefreshToken(ctx, c.managedExpirySeconds); err != nil {
			return err
		}
	}

	if c.Token() == "" {
		return ErrNoToken
	}
	return nil
}
