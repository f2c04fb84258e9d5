package sqlite

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/oddsock-dev/tokend/internal/domain"
	"github.com/oddsock-dev/tokend/internal/store"
)

const tokenColumns = `id, client_id, access_token, refresh_token, token_type, scope, revoked,
	created_at, refreshed_at, access_token_expires_at, refresh_token_expires_at`

type tokensRepo struct {
	q sqlx.ExtContext
}

func (r *tokensRepo) CreateToken(ctx context.Context, t domain.Token) (domain.Token, error) {
	var out domain.Token
	err := sqlx.GetContext(ctx, r.q, &out, `
		INSERT INTO tokens (
			client_id, access_token, refresh_token, token_type, scope, revoked,
			created_at, access_token_expires_at, refresh_token_expires_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+tokenColumns+`
	`, t.ClientID, t.AccessToken, t.RefreshToken, t.TokenType, t.Scope, t.Revoked,
		t.CreatedAt, t.AccessTokenExpiresAt, t.RefreshTokenExpiresAt)
	if err != nil {
		return domain.Token{}, mapConstraint(err)
	}
	return out, nil
}

func (r *tokensRepo) GetTokenByAccessToken(ctx context.Context, accessToken string) (domain.Token, error) {
	var t domain.Token
	err := sqlx.GetContext(ctx, r.q, &t, `
		SELECT `+tokenColumns+`
		FROM tokens
		WHERE access_token = ?
	`, accessToken)
	if err != nil {
		return domain.Token{}, mapNotFound(err)
	}
	return t, nil
}

func (r *tokensRepo) GetTokenByRefreshToken(ctx context.Context, refreshToken string) (domain.Token, error) {
	var t domain.Token
	err := sqlx.GetContext(ctx, r.q, &t, `
		SELECT `+tokenColumns+`
		FROM tokens
		WHERE refresh_token = ?
	`, refreshToken)
	if err != nil {
		return domain.Token{}, mapNotFound(err)
	}
	return t, nil
}

// RotateToken is a compare-and-swap on the current refresh_token value. Under
// concurrent refreshes of the same token exactly one UPDATE matches; the loser
// matches zero rows and observes ErrNotFound, never a half-written row.
func (r *tokensRepo) RotateToken(ctx context.Context, p store.RotateTokenParams) (domain.Token, error) {
	var t domain.Token
	err := sqlx.GetContext(ctx, r.q, &t, `
		UPDATE tokens
		SET access_token = ?,
			refresh_token = ?,
			refreshed_at = ?,
			access_token_expires_at = ?,
			refresh_token_expires_at = ?
		WHERE refresh_token = ? AND revoked = 0
		RETURNING `+tokenColumns+`
	`, p.AccessToken, p.RefreshToken, p.RefreshedAt,
		p.AccessTokenExpiresAt, p.RefreshTokenExpiresAt,
		p.CurrentRefreshToken)
	if err != nil {
		return domain.Token{}, mapConstraint(mapNotFound(err))
	}
	return t, nil
}

func (r *tokensRepo) RevokeToken(ctx context.Context, accessToken string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE tokens
		SET revoked = 1
		WHERE access_token = ?
	`, accessToken)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
