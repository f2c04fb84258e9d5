package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oddsock-dev/tokend/internal/domain"
	api "github.com/oddsock-dev/tokend/internal/http"
	"github.com/oddsock-dev/tokend/internal/service"
	"github.com/oddsock-dev/tokend/internal/store"
	"github.com/oddsock-dev/tokend/internal/store/sqlite"
	"github.com/oddsock-dev/tokend/pkg/slogx"
)

const (
	apiAccessTTL  = 5 * time.Minute
	apiRefreshTTL = time.Hour
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// apiFixture boots the full router against an in-memory store. Every request
// gets a distinct client IP so the per-IP rate limits never interfere with
// unrelated assertions.
type apiFixture struct {
	router *api.Router
	store  store.Store
	tokens *service.TokenService
	clock  *fakeClock
	reqN   int
}

func newAPIFixture(t *testing.T, bootstrapToken string) *apiFixture {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	tokens := &service.TokenService{Store: s, Now: clock.Now}

	logger := slogx.New(slogx.Config{
		Service: "tokend",
		Version: "test",
		Env:     "test",
		Level:   "error",
		Format:  "text",
	})

	router := api.NewRouter("test", s, logger)
	router.TokenService = tokens
	router.ClientService = &service.ClientService{Store: s}
	router.BootstrapService = &service.BootstrapService{Store: s, Token: bootstrapToken}
	router.AccessTTL = apiAccessTTL
	router.RefreshTTL = apiRefreshTTL
	router.ApplyRoutes()

	return &apiFixture{
		router: router,
		store:  s,
		tokens: tokens,
		clock:  clock,
	}
}

func (f *apiFixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	f.reqN++
	req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.1.%d.%d", f.reqN/250, f.reqN%250))

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) postForm(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return f.do(t, req)
}

func (f *apiFixture) postJSON(t *testing.T, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return f.do(t, req)
}

func (f *apiFixture) get(t *testing.T, path, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return f.do(t, req)
}

func (f *apiFixture) delete(t *testing.T, path, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodDelete, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return f.do(t, req)
}

// bootstrap creates the first account and client directly through the service.
func (f *apiFixture) bootstrap(t *testing.T) domain.Client {
	t.Helper()

	_, client, err := f.router.BootstrapService.Bootstrap(
		context.Background(), f.router.BootstrapService.Token, "ops", "initial")
	require.NoError(t, err)
	return client
}

// mustGetClient loads a client row, plaintext secret included, straight from
// the store.
func (f *apiFixture) mustGetClient(t *testing.T, clientID string) domain.Client {
	t.Helper()

	client, err := f.store.Clients().GetClientByClientID(context.Background(), clientID)
	require.NoError(t, err)
	return client
}

// issueToken exchanges the client's credentials for a bearer token via the
// real endpoint.
func (f *apiFixture) issueToken(t *testing.T, client domain.Client) domain.TokenResponse {
	t.Helper()

	rec := f.postForm(t, "/token", url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {client.ClientID},
		"client_secret": {client.ClientSecret},
	})
	require.Equal(t, http.StatusCreated, rec.Code, "token issuance failed: %s", rec.Body.String())

	var resp domain.TokenResponse
	decodeJSON(t, rec, &resp)
	return resp
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, v), "body: %s", body)
}
