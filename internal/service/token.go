package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oddsock-dev/tokend/internal/domain"
	"github.com/oddsock-dev/tokend/internal/store"
	"github.com/oddsock-dev/tokend/pkg/cryptox"
	"github.com/oddsock-dev/tokend/pkg/slogx"
)

const (
	GrantClientCredentials = "client_credentials"
	GrantRefreshToken      = "refresh_token"
)

var (
	ErrInvalidGrantType    = errors.New("invalid_grant_type")
	ErrClientNotFound      = errors.New("client_not_found")
	ErrInvalidClientSecret = errors.New("invalid_client_secret")
	ErrInvalidScope        = errors.New("invalid_scope")
	ErrTokenNotFound       = errors.New("token_not_found")
	ErrTokenRevoked        = errors.New("token_revoked")
	ErrTokenExpired        = errors.New("token_expired")
)

// TokenService implements the client-credentials token lifecycle: issuance,
// rotation and validation. Expiry is checked lazily against the clock at
// refresh/validate time; there are no background timers.
type TokenService struct {
	Store store.Store

	// Now is the clock. Defaults to time.Now; tests inject a fixed clock to
	// simulate expiry.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Issue implements the client_credentials grant. The lifetimes come from the
// caller (server configuration), never from the client. The returned token is
// the only time the raw access/refresh strings leave the system.
func (s *TokenService) Issue(
	ctx context.Context,
	grantType, clientID, clientSecret, scope string,
	accessTTL, refreshTTL time.Duration,
) (domain.Token, error) {
	l := slogx.FromContext(ctx)

	if grantType != GrantClientCredentials {
		return domain.Token{}, ErrInvalidGrantType
	}

	if scope == "" {
		scope = domain.ScopeAPI
	}

	now := s.now()

	var issued domain.Token
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		client, err := tx.Clients().GetClientByClientID(ctx, clientID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrClientNotFound
			}
			return err
		}

		if !CompareSecret(client, clientSecret) {
			l.Info("client authentication failed", slog.String("client_id", clientID))
			return ErrInvalidClientSecret
		}

		// Scope is checked only after the client has authenticated, so an
		// unauthenticated caller learns nothing about scope validity.
		if scope != domain.ScopeAPI {
			return ErrInvalidScope
		}

		accessToken, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return err
		}
		refreshToken, err := cryptox.GenerateToken(cryptox.TokenSize512)
		if err != nil {
			return err
		}

		issued, err = tx.Tokens().CreateToken(ctx, domain.Token{
			ClientID:              client.ID,
			AccessToken:           accessToken,
			RefreshToken:          refreshToken,
			TokenType:             domain.TokenTypeBearer,
			Scope:                 scope,
			CreatedAt:             now,
			AccessTokenExpiresAt:  now.Add(accessTTL),
			RefreshTokenExpiresAt: now.Add(refreshTTL),
		})
		return err
	})
	if err != nil {
		return domain.Token{}, err
	}

	l.Info("token issued", slog.String("client_id", clientID))
	return issued, nil
}

// Refresh implements the refresh_token grant. The token row is rotated in
// place: new access/refresh strings, both expiries recomputed from now. The
// rotation is a compare-and-swap on the presented refresh token, so of two
// concurrent refreshes exactly one wins and the other observes ErrTokenNotFound.
func (s *TokenService) Refresh(
	ctx context.Context,
	grantType, refreshToken string,
	accessTTL, refreshTTL time.Duration,
) (domain.Token, error) {
	l := slogx.FromContext(ctx)

	if grantType != GrantRefreshToken {
		return domain.Token{}, ErrInvalidGrantType
	}

	now := s.now()

	var rotated domain.Token
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		token, err := tx.Tokens().GetTokenByRefreshToken(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrTokenNotFound
			}
			return err
		}

		if token.Revoked {
			return ErrTokenRevoked
		}
		if token.RefreshExpired(now) {
			return ErrTokenExpired
		}

		newAccess, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return err
		}
		newRefresh, err := cryptox.GenerateToken(cryptox.TokenSize512)
		if err != nil {
			return err
		}

		rotated, err = tx.Tokens().RotateToken(ctx, store.RotateTokenParams{
			CurrentRefreshToken:   refreshToken,
			AccessToken:           newAccess,
			RefreshToken:          newRefresh,
			RefreshedAt:           now,
			AccessTokenExpiresAt:  now.Add(accessTTL),
			RefreshTokenExpiresAt: now.Add(refreshTTL),
		})
		if errors.Is(err, store.ErrNotFound) {
			// A concurrent rotation won between our read and the swap.
			return ErrTokenNotFound
		}
		return err
	})
	if err != nil {
		return domain.Token{}, err
	}

	l.Info("token refreshed")
	return rotated, nil
}

// ExpiresIn returns the seconds left on the token's access expiry, measured
// on the service clock.
func (s *TokenService) ExpiresIn(t domain.Token) int64 {
	return t.ExpiresIn(s.now())
}

// Validate authenticates a bearer access token and returns the token together
// with its owning client.
func (s *TokenService) Validate(ctx context.Context, accessToken string) (domain.Client, domain.Token, error) {
	token, err := s.Store.Tokens().GetTokenByAccessToken(ctx, accessToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, domain.Token{}, ErrTokenNotFound
		}
		return domain.Client{}, domain.Token{}, err
	}

	// Expiry is checked before revocation so an expired token always reads
	// as expired, revoked or not.
	if token.AccessExpired(s.now()) {
		return domain.Client{}, domain.Token{}, ErrTokenExpired
	}
	if token.Revoked {
		return domain.Client{}, domain.Token{}, ErrTokenRevoked
	}

	client, err := s.Store.Clients().GetClientByID(ctx, token.ClientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, domain.Token{}, ErrTokenNotFound
		}
		return domain.Client{}, domain.Token{}, err
	}

	return client, token, nil
}
