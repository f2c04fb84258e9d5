package domain

import "time"

// TokenTypeBearer is the only token_type this service issues.
const TokenTypeBearer = "Bearer"

// ScopeAPI is the single supported scope.
const ScopeAPI = "api"

// Token is a stored access/refresh token pair. Refresh mutates the row in
// place: both opaque strings and both expiries are overwritten, no history of
// prior values is kept.
type Token struct {
	ID                    int64      `db:"id"`
	ClientID              int64      `db:"client_id"`
	AccessToken           string     `db:"access_token"`
	RefreshToken          string     `db:"refresh_token"`
	TokenType             string     `db:"token_type"`
	Scope                 string     `db:"scope"`
	Revoked               bool       `db:"revoked"`
	CreatedAt             time.Time  `db:"created_at"`
	RefreshedAt           *time.Time `db:"refreshed_at"`
	AccessTokenExpiresAt  time.Time  `db:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time  `db:"refresh_token_expires_at"`
}

// AccessExpired reports whether the access token has passed its expiry.
func (t Token) AccessExpired(now time.Time) bool {
	return now.After(t.AccessTokenExpiresAt)
}

// RefreshExpired reports whether the refresh token has passed its expiry.
func (t Token) RefreshExpired(now time.Time) bool {
	return now.After(t.RefreshTokenExpiresAt)
}

// ExpiresIn returns the whole seconds remaining until the access token
// expires, clamped at zero.
func (t Token) ExpiresIn(now time.Time) int64 {
	remaining := t.AccessTokenExpiresAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return int64(remaining.Seconds())
}

// TokenResponse is the JSON body returned by the token endpoints. The raw
// access and refresh strings leave the system as plaintext exactly once, in
// this response.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	ExpiresIn    int64  `json:"expires_in"`
}
