package metadata

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	issuer := &tokenIssuer{}
	client := newTestClient(t, issuer.wrap(http.NotFoundHandler()))

	before := time.Now()
	token, err := client.GenerateToken(context.Background(), 3600)
	require.NoError(t, err)

	assert.Equal(t, "token-1", token.Value)
	assert.Equal(t, 3600, token.ExpirySeconds)

	// The clock starts at request issuance.
	assert.False(t, token.Created.Before(before))
	assert.True(t, token.ExpiresAt().Equal(token.Created.Add(3600*time.Second)))

	// Generating does not install the token on the client.
	assert.Equal(t, "test-token", client.Token())
}

func TestGenerateTokenDefaultsExpiry(t *testing.T) {
	issuer := &tokenIssuer{}
	client := newTestClient(t, issuer.wrap(http.NotFoundHandler()))

	token, err := client.GenerateToken(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenExpirySeconds, token.ExpirySeconds)
}

func TestGenerateAndSetTokenRoundTrip(t *testing.T) {
	issuer := &tokenIssuer{}
	var gotToken string
	handler := issuer.wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("Metadata-Token")
		jsonHandler(`{"id": 1}`).ServeHTTP(w, r)
	}))
	client := newTestClient(t, handler)

	token, err := client.GenerateToken(context.Background(), 3600)
	require.NoError(t, err)
	client.SetToken(token.Value)

	// The fresh token must be usable immediately, with no spurious refresh.
	_, err = client.GetInstance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", gotToken)
	assert.Equal(t, 1, issuer.count())
}

func TestRefreshTokenInstallsToken(t *testing.T) {
	issuer := &tokenIssuer{}
	client := newTestClient(t, issuer.wrap(http.NotFoundHandler()))

	token, err := client.RefreshToken(context.Background(), 60)
	require.NoError(t, err)

	assert.Equal(t, token.Value, client.Token())

	client.mu.Lock()
	expiry := client.managedExpiry
	client.mu.Unlock()
	assert.True(t, expiry.Equal(token.ExpiresAt()))
}

func TestManagedTokenRefreshOnExpiry(t *testing.T) {
	issuer := &tokenIssuer{}
	srv := newTestServer(t, issuer.wrap(jsonHandler(`{"id": 1}`)))

	client, err := NewClient(context.Background(), WithBaseURL(srv.URL))
	require.NoError(t, err)
	defer client.Close()

	require.Equal(t, "token-1", client.Token())
	require.Equal(t, 1, issuer.count())

	// A still-valid token triggers no refresh.
	_, err = client.GetInstance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, issuer.count())

	// Push the managed expiry into the past; the next authenticated
	// call must perform exactly one implicit refresh.
	client.mu.Lock()
	client.managedExpiry = time.Now().Add(-time.Second)
	client.mu.Unlock()

	_, err = client.GetInstance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, issuer.count())
	assert.Equal(t, "token-2", client.Token())
}

func TestAuthenticatedCallWithoutToken(t *testing.T) {
	srv := newTestServer(t, http.NotFoundHandler())

	client, err := NewClient(context.Background(), WithBaseURL(srv.URL), WithoutManagedToken())
	require.NoError(t, err)
	defer client.Close()

	_, err = client.GetInstance(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestTokenExpiryBoundaryIsInclusive(t *testing.T) {
	issuer := &tokenIssuer{}
	srv := newTestServer(t, issuer.wrap(jsonHandler(`{"id": 1}`)))

	client, err := NewClient(context.Background(), WithBaseURL(srv.URL))
	require.NoError(t, err)
	defer client.Close()

	// A token expiring exactly now is already stale.
	client.mu.Lock()
	client.managedExpiry = time.Now()
	client.mu.Unlock()

	_, err = client.GetInstance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, issuer.count())
}
