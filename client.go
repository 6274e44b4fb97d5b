// Package metadata is a client library for the link-local instance
// metadata service. It retrieves instance, network, SSH key and user
// data information for the instance the process runs on, manages the
// short-lived tokens the service requires, and can watch any metadata
// category for changes.
package metadata

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// DefaultBaseURL is the well-known link-local address of the
	// metadata service. Generally you shouldn't change this.
	DefaultBaseURL = "http://169.254.169.254/v1"

	// DefaultTimeout bounds every single API call.
	DefaultTimeout = 10 * time.Second

	// DefaultTokenExpirySeconds is the lifetime requested for managed
	// tokens when no policy is configured.
	DefaultTokenExpirySeconds = 3600
)

// Client talks to the instance metadata service. Use NewClient to
// construct one and Close to release it. A Client may be shared with
// the watch goroutines it spawns; it is not designed for concurrent
// reconfiguration from independent callers.
type Client struct {
	baseURL         string
	httpClient      *http.Client
	userAgentSuffix string
	log             logr.Logger
	metrics         *clientMetrics

	managedToken         bool
	managedExpirySeconds int

	mu            sync.Mutex
	token         string
	managedExpiry time.Time
	watcher       *Watcher
}

type clientOptions struct {
	baseURL         string
	userAgentSuffix string
	token           string
	timeout         time.Duration
	httpClient      *http.Client
	managedToken    bool
	expirySeconds   int
	logger          logr.Logger
	registerer      prometheus.Registerer
}

// Option configures a Client at construction time.
type Option func(*clientOptions)

// WithBaseURL overrides the metadata service address, usually only
// useful for testing against a local stand-in.
func WithBaseURL(baseURL string) Option {
	return func(o *clientOptions) { o.baseURL = baseURL }
}

// WithUserAgent prepends a caller-supplied identity to the User-Agent
// of every request made by the client.
func WithUserAgent(suffix string) Option {
	return func(o *clientOptions) { o.userAgentSuffix = suffix }
}

// WithToken supplies an existing token. A client built with an explicit
// token must also disable managed token mode, otherwise NewClient fails
// with ErrManagedTokenConflict.
func WithToken(token string) Option {
	return func(o *clientOptions) { o.token = token }
}

// WithTimeout bounds each individual API call. The timeout is
// independent of any watch poll interval.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) { o.timeout = timeout }
}

// WithHTTPClient substitutes the transport used for all requests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = httpClient }
}

// WithoutManagedToken disables automatic token generation and refresh.
// The caller then owns the token lifecycle via SetToken / RefreshToken.
func WithoutManagedToken() Option {
	return func(o *clientOptions) { o.managedToken = false }
}

// WithManagedTokenExpiry sets the lifetime, in seconds, requested for
// tokens the client generates on the caller's behalf.
func WithManagedTokenExpiry(seconds int) Option {
	return func(o *clientOptions) { o.expirySeconds = seconds }
}

// WithLogger injects a diagnostic sink. Request and response details
// are logged at V(1). The default sink discards everything.
func WithLogger(log logr.Logger) Option {
	return func(o *clientOptions) { o.logger = log }
}

// WithMetrics registers prometheus collectors for API requests, token
// refreshes and watch polls on the given registerer.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *clientOptions) { o.registerer = reg }
}

// NewClient builds a client for the metadata service. Token management
// is enabled by default; in that mode the initial token is generated
// here, so construction fails if the service is unreachable.
func NewClient(ctx context.Context, opts ...Option) (*Client, error) {
	o := clientOptions{
		baseURL:       DefaultBaseURL,
		timeout:       DefaultTimeout,
		managedToken:  true,
		expirySeconds: DefaultTokenExpirySeconds,
		logger:        logr.Discard(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.token != "" && o.managedToken {
		return nil, ErrManagedTokenConflict
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if httpClient.Timeout == 0 {
		httpClient.Timeout = o.timeout
	}

	c := &Client{
		baseURL:              o.baseURL,
		httpClient:           httpClient,
		userAgentSuffix:      o.userAgentSuffix,
		log:                  o.logger,
		managedToken:         o.managedToken,
		managedExpirySeconds: o.expirySeconds,
		token:                o.token,
	}
	if o.registerer != nil {
		c.metrics = newClientMetrics(o.registerer)
	}

	if c.managedToken {
		if _, err := c.RefreshToken(ctx, c.managedExpirySeconds); err != nil {
			return nil, fmt.Errorf("metadata: initial token refresh: %w", err)
		}
	}

	return c, nil
}

// Close clears the held token and releases idle transport connections.
// The client must not be used afterwards.
func (c *Client) Close() {
	c.mu.Lock()
	c.token = ""
	c.managedExpiry = time.Time{}
	c.mu.Unlock()

	c.httpClient.CloseIdleConnections()
}

// CheckConnection confirms the metadata service is reachable with an
// unauthenticated request against the base URL. A timeout is reported
// as a ConnectionError: the process is most likely not running inside
// an instance.
func (c *Client) CheckConnection(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("metadata: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return &ConnectionError{Err: err}
		}
		return fmt.Errorf("metadata: connection check failed: %w", err)
	}
	return resp.Body.Close()
}

// GetWatcher returns the client's watcher, creating it on first use. A
// client holds at most one watcher; repeated calls reuse it and update
// its default poll interval. A defaultInterval of zero or less selects
// DefaultWatchInterval.
func (c *Client) GetWatcher(defaultInterval time.Duration) *Watcher {
	if defaultInterval <= 0 {
		defaultInterval = DefaultWatchInterval
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.watcher == nil {
		c.watcher = &Watcher{client: c, defaultInterval: defaultInterval, log: c.log}
	} else {
		c.watcher.setDefaultInterval(defaultInterval)
	}
	return c.watcher
}
