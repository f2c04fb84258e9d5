package http_test

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oddsock-dev/tokend/internal/domain"
	api "github.com/oddsock-dev/tokend/internal/http"
)

func TestTokenEndpoint(t *testing.T) {
	f := newAPIFixture(t, "")
	client := f.bootstrap(t)

	rec := f.postForm(t, "/token", url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {client.ClientID},
		"client_secret": {client.ClientSecret},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.Equal(t, "no-cache", rec.Header().Get("Pragma"))
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp domain.TokenResponse
	decodeJSON(t, rec, &resp)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	require.Equal(t, "Bearer", resp.TokenType)
	require.Equal(t, "api", resp.Scope)
	require.Equal(t, int64(apiAccessTTL.Seconds()), resp.ExpiresIn)
}

func TestTokenEndpoint_Failures(t *testing.T) {
	f := newAPIFixture(t, "")
	client := f.bootstrap(t)

	t.Run("unknown client", func(t *testing.T) {
		rec := f.postForm(t, "/token", url.Values{
			"grant_type":    {"client_credentials"},
			"client_id":     {"no-such-client"},
			"client_secret": {"whatever"},
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		var resp api.ErrorResponse
		decodeJSON(t, rec, &resp)
		require.Equal(t, "invalid_client", resp.Error)
	})

	t.Run("wrong secret", func(t *testing.T) {
		rec := f.postForm(t, "/token", url.Values{
			"grant_type":    {"client_credentials"},
			"client_id":     {client.ClientID},
			"client_secret": {"wrong"},
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unsupported grant type", func(t *testing.T) {
		rec := f.postForm(t, "/token", url.Values{
			"grant_type":    {"authorization_code"},
			"client_id":     {client.ClientID},
			"client_secret": {client.ClientSecret},
		})
		require.Equal(t, http.StatusForbidden, rec.Code)

		var resp api.ErrorResponse
		decodeJSON(t, rec, &resp)
		require.Equal(t, "unsupported_grant_type", resp.Error)
	})

	t.Run("unsupported scope", func(t *testing.T) {
		rec := f.postForm(t, "/token", url.Values{
			"grant_type":    {"client_credentials"},
			"client_id":     {client.ClientID},
			"client_secret": {client.ClientSecret},
			"scope":         {"admin"},
		})
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := f.postForm(t, "/token", url.Values{})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var errs []api.ValidationError
		decodeJSON(t, rec, &errs)
		require.Len(t, errs, 3)

		var fields []string
		for _, e := range errs {
			require.Equal(t, "value_error.missing", e.Type)
			require.Len(t, e.Loc, 2)
			fields = append(fields, e.Loc[1])
		}
		require.ElementsMatch(t, []string{"grant_type", "client_id", "client_secret"}, fields)
	})
}

func TestTokenRefreshEndpoint(t *testing.T) {
	f := newAPIFixture(t, "")
	client := f.bootstrap(t)
	issued := f.issueToken(t, client)

	rec := f.postForm(t, "/token-refresh", url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {issued.RefreshToken},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var rotated domain.TokenResponse
	decodeJSON(t, rec, &rotated)
	require.NotEqual(t, issued.AccessToken, rotated.AccessToken)
	require.NotEqual(t, issued.RefreshToken, rotated.RefreshToken)
	require.Equal(t, "Bearer", rotated.TokenType)

	// The old refresh token is spent.
	rec = f.postForm(t, "/token-refresh", url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {issued.RefreshToken},
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTokenRefreshEndpoint_Failures(t *testing.T) {
	f := newAPIFixture(t, "")
	client := f.bootstrap(t)

	t.Run("unknown refresh token", func(t *testing.T) {
		rec := f.postForm(t, "/token-refresh", url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {"no-such-token"},
		})
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("revoked token", func(t *testing.T) {
		issued := f.issueToken(t, client)
		require.NoError(t, f.store.Tokens().RevokeToken(t.Context(), issued.AccessToken))

		rec := f.postForm(t, "/token-refresh", url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {issued.RefreshToken},
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired refresh token", func(t *testing.T) {
		issued := f.issueToken(t, client)
		f.clock.Advance(apiRefreshTTL + time.Second)
		defer f.clock.Advance(-(apiRefreshTTL + time.Second))

		rec := f.postForm(t, "/token-refresh", url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {issued.RefreshToken},
		})
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("wrong grant type is a validation error", func(t *testing.T) {
		issued := f.issueToken(t, client)

		rec := f.postForm(t, "/token-refresh", url.Values{
			"grant_type":    {"client_credentials"},
			"refresh_token": {issued.RefreshToken},
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var errs []api.ValidationError
		decodeJSON(t, rec, &errs)
		require.Len(t, errs, 1)
		require.Equal(t, []string{"body", "grant_type"}, errs[0].Loc)
	})

	t.Run("missing refresh token", func(t *testing.T) {
		rec := f.postForm(t, "/token-refresh", url.Values{
			"grant_type": {"refresh_token"},
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

// The access token dies on schedule but the refresh window stays open.
func TestTokenExpiryFlow(t *testing.T) {
	f := newAPIFixture(t, "")
	client := f.bootstrap(t)
	issued := f.issueToken(t, client)

	// Valid now: the bearer token opens /clients.
	rec := f.get(t, "/clients", issued.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)

	f.clock.Advance(apiAccessTTL + time.Second)

	rec = f.get(t, "/clients", issued.AccessToken)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Still inside the refresh window.
	rec = f.postForm(t, "/token-refresh", url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {issued.RefreshToken},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var rotated domain.TokenResponse
	decodeJSON(t, rec, &rotated)

	rec = f.get(t, "/clients", rotated.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
}
