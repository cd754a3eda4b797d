package mpesa

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAccessTokenPlaceholderCredentialsFailFast(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer ts.Close()

	cfg := testConfig(ts.URL)
	cfg.ConsumerKey = "your_consumer_key"
	tokens := NewTokenProvider(cfg, nil)

	_, err := tokens.AccessToken(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.Contains(t, authErr.Message, "placeholder")
	require.Equal(t, 0, calls, "no network call should be made with placeholder credentials")
}

func TestAccessTokenCachesUntilExpiry(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-abc","expires_in":"3599"}`))
	}))
	defer ts.Close()

	tokens := NewTokenProvider(testConfig(ts.URL), nil)

	for i := 0; i < 3; i++ {
		token, err := tokens.AccessToken(context.Background())
		require.NoError(t, err)
		require.Equal(t, "tok-abc", token)
	}
	require.Equal(t, 1, calls, "token should be fetched once and served from cache")
}

func TestAccessTokenUpstreamRejection(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errorMessage":"Invalid Credentials"}`))
	}))
	defer ts.Close()

	tokens := NewTokenProvider(testConfig(ts.URL), nil)

	_, err := tokens.AccessToken(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
	require.Contains(t, authErr.Body, "Invalid Credentials")
}

func TestAccessTokenMalformedResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not-json`))
	}))
	defer ts.Close()

	tokens := NewTokenProvider(testConfig(ts.URL), nil)

	_, err := tokens.AccessToken(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
}
