package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/oddsock-dev/tokend/internal/service"
	"github.com/oddsock-dev/tokend/pkg/httpx"
)

// BearerAuth authenticates requests with an opaque bearer access token and
// puts the owning account and client ids on the context. All validation
// failures collapse to one 401 so callers cannot probe token state.
func BearerAuth(tokens *service.TokenService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="tokend"`)
				writeError(w, http.StatusUnauthorized, "invalid_token",
					"Missing or malformed Authorization header")
				return
			}

			client, _, err := tokens.Validate(r.Context(), raw)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="tokend", error="invalid_token"`)
				writeError(w, http.StatusUnauthorized, "invalid_token",
					"The access token is invalid or expired")
				return
			}

			ctx := context.WithValue(r.Context(), httpx.CtxKeyAccountID, client.AccountID)
			ctx = context.WithValue(ctx, httpx.CtxKeyClientID, client.ClientID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", false
	}
	token := strings.TrimSpace(auth[len(prefix):])
	return token, token != ""
}

func accountFromContext(r *http.Request) (int64, bool) {
	id, ok := r.Context().Value(httpx.CtxKeyAccountID).(int64)
	return id, ok
}
