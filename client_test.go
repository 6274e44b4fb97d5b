package metadata

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientRejectsTokenWithManagedMode(t *testing.T) {
	// Managed mode is the default, so an explicit token alone conflicts.
	_, err := NewClient(context.Background(), WithToken("abc123"))
	assert.ErrorIs(t, err, ErrManagedTokenConflict)
}

func TestNewClientManagedModeRefreshesOnConstruction(t *testing.T) {
	issuer := &tokenIssuer{}
	srv := newTestServer(t, issuer.wrap(http.NotFoundHandler()))

	client, err := NewClient(context.Background(), WithBaseURL(srv.URL))
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, "token-1", client.Token())
	assert.Equal(t, 1, issuer.count())
}

func TestNewClientManagedModeFailsWhenUnreachable(t *testing.T) {
	srv := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":[{"reason":"Service Unavailable"}]}`, http.StatusServiceUnavailable)
	}))

	_, err := NewClient(context.Background(), WithBaseURL(srv.URL))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
}

func TestCloseClearsToken(t *testing.T) {
	client := newTestClient(t, http.NotFoundHandler())
	require.Equal(t, "test-token", client.Token())

	client.Close()
	assert.Empty(t, client.Token())
}

func TestCheckConnection(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		client := newTestClient(t, http.NotFoundHandler())
		assert.NoError(t, client.CheckConnection(context.Background()))
	})

	t.Run("timeout becomes connection error", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(500 * time.Millisecond)
		}), WithTimeout(50*time.Millisecond))

		err := client.CheckConnection(context.Background())
		var connErr *ConnectionError
		assert.ErrorAs(t, err, &connErr)
	})
}

func TestGetWatcherReusesSingleInstance(t *testing.T) {
	client := newTestClient(t, http.NotFoundHandler())

	first := client.GetWatcher(0)
	require.NotNil(t, first)
	assert.Equal(t, DefaultWatchInterval, first.DefaultInterval())

	second := client.GetWatcher(5 * time.Second)
	assert.Same(t, first, second)
	assert.Equal(t, 5*time.Second, first.DefaultInterval())
}
