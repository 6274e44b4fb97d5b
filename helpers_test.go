package metadata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// tokenIssuer serves PUT /token with sequential token values and counts
// how many tokens it handed out.
type tokenIssuer struct {
	mu     sync.Mutex
	issued int
}

func (ti *tokenIssuer) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/token" {
			ti.mu.Lock()
			ti.issued++
			n := ti.issued
			ti.mu.Unlock()
			fmt.Fprintf(w, "token-%d", n)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (ti *tokenIssuer) count() int {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	return ti.issued
}

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

// newTestClient builds an unmanaged client with a fixed token against
// the given handler. Tests that need managed mode construct directly.
func newTestClient(t *testing.T, handler http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := newTestServer(t, handler)

	opts = append([]Option{
		WithBaseURL(srv.URL),
		WithoutManagedToken(),
		WithToken("test-token"),
	}, opts...)

	client, err := NewClient(context.Background(), opts...)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func jsonHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	})
}
