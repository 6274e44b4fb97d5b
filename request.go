package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
)

const (
	contentTypeJSON = "application/json"
	contentTypeText = "text/plain"
)

var supportedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
}

// apiRequest describes one logical call against the metadata service.
type apiRequest struct {
	Method      string
	Path        string
	ContentType string // expected response content type

	// Body is serialized as JSON for POST and PUT requests only.
	Body any

	// Headers are merged in last; caller-supplied values win.
	Headers map[string]string

	Authenticated bool
}

// apiCall runs one request end to end: token validation, header
// assembly, transport, status classification and body handling. It
// never retries; every failure surfaces to the caller. A 204 response
// yields a nil body regardless of the declared content type.
func (c *Client) apiCall(ctx context.Context, req apiRequest) ([]byte, error) {
	if req.ContentType != contentTypeJSON && req.ContentType != contentTypeText {
		return nil, &InvalidRequestError{Reason: fmt.Sprintf("unsupported content type %q", req.ContentType)}
	}
	if !supportedMethods[req.Method] {
		return nil, &InvalidRequestError{Reason: fmt.Sprintf("unsupported method %q", req.Method)}
	}

	if req.Authenticated {
		if err := c.validateToken(ctx); err != nil {
			return nil, err
		}
	}

	var body io.Reader
	hasBody := req.Method == http.MethodPost || req.Method == http.MethodPut
	if hasBody && req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("metadata: marshal request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("metadata: build request: %w", err)
	}

	headers := httpReq.Header
	headers.Set("Accept", req.ContentType)
	headers.Set("User-Agent", c.userAgent())
	if hasBody {
		headers.Set("Content-Type", req.ContentType)
	}
	if req.Authenticated {
		headers.Set("Metadata-Token", c.Token())
	}
	for k, v := range req.Headers {
		headers.Set(k, v)
	}

	c.log.V(1).Info("request", "method", req.Method, "url", httpReq.URL.String(), "headers", headers)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, &ConnectionError{Err: err}
		}
		return nil, fmt.Errorf("metadata: request failed: %w", err)
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.requests.WithLabelValues(req.Method, strconv.Itoa(resp.StatusCode)).Inc()
	}
	c.log.V(1).Info("response", "status", resp.StatusCode, "reason", http.StatusText(resp.StatusCode), "headers", resp.Header)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("metadata: read response body: %w", err)
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 600 {
		return nil, newAPIError(resp.StatusCode, raw)
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	return raw, nil
}

// isTimeout reports whether err is a transport-level timeout, the
// signal that the process is not next to the metadata service.
func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
