package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/oddsock-dev/tokend/internal/domain"
	"github.com/oddsock-dev/tokend/internal/service"
	"github.com/oddsock-dev/tokend/pkg/httpx"
	"github.com/oddsock-dev/tokend/pkg/slogx"
)

// TokenHandler serves POST /token.
// Accepts application/x-www-form-urlencoded per the RFC 6749 framework.
type TokenHandler struct {
	TokenService *service.TokenService
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Endpoint
//	@Description	Issues an access/refresh token pair using the client_credentials grant.
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			grant_type		formData	string					true	"Grant type"	Enums(client_credentials)
//	@Param			client_id		formData	string					true	"Client identifier"
//	@Param			client_secret	formData	string					true	"Client secret"
//	@Param			scope			formData	string					false	"Requested scope (defaults to api)"
//	@Success		201				{object}	domain.TokenResponse	"access_token, refresh_token, token_type, scope, expires_in"
//	@Failure		401				{object}	ErrorResponse			"error, error_description"
//	@Failure		403				{object}	ErrorResponse			"error, error_description"
//	@Failure		422				{array}		ValidationError			"loc, msg, type"
//	@Failure		500				{object}	ErrorResponse			"error, error_description"
//	@Header			201				{string}	Cache-Control			"no-store"
//	@Header			201				{string}	Pragma					"no-cache"
//	@Router			/token [post].
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := r.ParseForm(); err != nil {
		writeValidationErrors(w, http.StatusUnprocessableEntity, invalidBody("invalid form body"))
		return
	}

	grantType := strings.TrimSpace(r.Form.Get("grant_type"))
	clientID := strings.TrimSpace(r.Form.Get("client_id"))
	clientSecret := r.Form.Get("client_secret")
	scope := strings.TrimSpace(r.Form.Get("scope"))

	var missing []ValidationError
	if grantType == "" {
		missing = append(missing, missingField("grant_type"))
	}
	if clientID == "" {
		missing = append(missing, missingField("client_id"))
	}
	if clientSecret == "" {
		missing = append(missing, missingField("client_secret"))
	}
	if len(missing) > 0 {
		writeValidationErrors(w, http.StatusUnprocessableEntity, missing...)
		return
	}

	token, err := h.TokenService.Issue(ctx, grantType, clientID, clientSecret, scope,
		h.AccessTTL, h.RefreshTTL)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidGrantType):
			writeError(w, http.StatusForbidden, "unsupported_grant_type",
				"Only the client_credentials grant is supported")
		case errors.Is(err, service.ErrInvalidScope):
			writeError(w, http.StatusForbidden, "invalid_scope",
				"The requested scope is not supported")
		case errors.Is(err, service.ErrClientNotFound),
			errors.Is(err, service.ErrInvalidClientSecret):
			writeError(w, http.StatusUnauthorized, "invalid_client",
				"Client authentication failed")
		default:
			log.Error("client_credentials grant failed", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "")
		}
		return
	}

	writeTokenResponse(w, token, h.TokenService.ExpiresIn(token))
}

// TokenRefreshHandler serves POST /token-refresh.
type TokenRefreshHandler struct {
	TokenService *service.TokenService
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Refresh Endpoint
//	@Description	Rotates an access/refresh token pair in place using the refresh_token grant.
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			grant_type		formData	string					true	"Grant type"	Enums(refresh_token)
//	@Param			refresh_token	formData	string					true	"Current refresh token"
//	@Success		201				{object}	domain.TokenResponse	"access_token, refresh_token, token_type, scope, expires_in"
//	@Failure		401				{object}	ErrorResponse			"token revoked"
//	@Failure		403				{object}	ErrorResponse			"refresh token expired"
//	@Failure		404				{object}	ErrorResponse			"no matching refresh token"
//	@Failure		422				{array}		ValidationError			"loc, msg, type"
//	@Failure		500				{object}	ErrorResponse			"error, error_description"
//	@Header			201				{string}	Cache-Control			"no-store"
//	@Header			201				{string}	Pragma					"no-cache"
//	@Router			/token-refresh [post].
func (h *TokenRefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := r.ParseForm(); err != nil {
		writeValidationErrors(w, http.StatusUnprocessableEntity, invalidBody("invalid form body"))
		return
	}

	grantType := strings.TrimSpace(r.Form.Get("grant_type"))
	refreshToken := r.Form.Get("refresh_token")

	var invalid []ValidationError
	if refreshToken == "" {
		invalid = append(invalid, missingField("refresh_token"))
	}
	// Unlike /token, a wrong grant type here is a request-shape problem, not a
	// protocol decision, so it reports as validation.
	if grantType != service.GrantRefreshToken {
		invalid = append(invalid, ValidationError{
			Loc:  []string{"body", "grant_type"},
			Msg:  "grant_type must be refresh_token",
			Type: "value_error.grant_type",
		})
	}
	if len(invalid) > 0 {
		writeValidationErrors(w, http.StatusUnprocessableEntity, invalid...)
		return
	}

	token, err := h.TokenService.Refresh(ctx, grantType, refreshToken,
		h.AccessTTL, h.RefreshTTL)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenNotFound):
			writeError(w, http.StatusNotFound, "token_not_found",
				"No token matches the presented refresh token")
		case errors.Is(err, service.ErrTokenRevoked):
			writeError(w, http.StatusUnauthorized, "token_revoked",
				"The token has been revoked")
		case errors.Is(err, service.ErrTokenExpired):
			writeError(w, http.StatusForbidden, "token_expired",
				"The refresh token has expired")
		default:
			log.Error("refresh grant failed", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "")
		}
		return
	}

	writeTokenResponse(w, token, h.TokenService.ExpiresIn(token))
}

func writeTokenResponse(w http.ResponseWriter, token domain.Token, expiresIn int64) {
	response := domain.TokenResponse{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Scope:        token.Scope,
		ExpiresIn:    expiresIn,
	}
	httpx.WriteJSON(w, http.StatusCreated, response)
}
