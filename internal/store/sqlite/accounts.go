package sqlite

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/oddsock-dev/tokend/internal/domain"
)

type accountsRepo struct {
	q sqlx.ExtContext
}

func (r *accountsRepo) CreateAccount(ctx context.Context, name string) (domain.Account, error) {
	var a domain.Account
	err := sqlx.GetContext(ctx, r.q, &a, `
		INSERT INTO accounts (name, created_at)
		VALUES (?, ?)
		RETURNING id, name, created_at
	`, name, time.Now().UTC())
	if err != nil {
		return domain.Account{}, mapConstraint(err)
	}
	return a, nil
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id int64) (domain.Account, error) {
	var a domain.Account
	err := sqlx.GetContext(ctx, r.q, &a, `
		SELECT id, name, created_at
		FROM accounts
		WHERE id = ?
	`, id)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	err := sqlx.GetContext(ctx, r.q, &count, `SELECT COUNT(*) FROM accounts`)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}
