package sqlite

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/oddsock-dev/tokend/internal/domain"
	"github.com/oddsock-dev/tokend/internal/store"
)

const clientColumns = `id, client_id, client_secret, name, account_id, created_at, secret_expires_at`

type clientsRepo struct {
	q sqlx.ExtContext
}

func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) (domain.Client, error) {
	var out domain.Client
	err := sqlx.GetContext(ctx, r.q, &out, `
		INSERT INTO clients (client_id, client_secret, name, account_id, created_at, secret_expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING `+clientColumns+`
	`, c.ClientID, c.ClientSecret, c.Name, c.AccountID, c.CreatedAt, c.SecretExpiresAt)
	if err != nil {
		return domain.Client{}, mapConstraint(err)
	}
	return out, nil
}

func (r *clientsRepo) GetClientByClientID(ctx context.Context, clientID string) (domain.Client, error) {
	var c domain.Client
	err := sqlx.GetContext(ctx, r.q, &c, `
		SELECT `+clientColumns+`
		FROM clients
		WHERE client_id = ?
	`, clientID)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}
	return c, nil
}

func (r *clientsRepo) GetClientForAccount(ctx context.Context, accountID int64, clientID string) (domain.Client, error) {
	var c domain.Client
	err := sqlx.GetContext(ctx, r.q, &c, `
		SELECT `+clientColumns+`
		FROM clients
		WHERE client_id = ? AND account_id = ?
	`, clientID, accountID)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}
	return c, nil
}

func (r *clientsRepo) GetClientByID(ctx context.Context, id int64) (domain.Client, error) {
	var c domain.Client
	err := sqlx.GetContext(ctx, r.q, &c, `
		SELECT `+clientColumns+`
		FROM clients
		WHERE id = ?
	`, id)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}
	return c, nil
}

func (r *clientsRepo) ListClientsForAccount(ctx context.Context, accountID int64) ([]domain.Client, error) {
	clients := []domain.Client{}
	err := sqlx.SelectContext(ctx, r.q, &clients, `
		SELECT `+clientColumns+`
		FROM clients
		WHERE account_id = ?
		ORDER BY created_at ASC, id ASC
	`, accountID)
	if err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *clientsRepo) DeleteClient(ctx context.Context, accountID int64, clientID string) error {
	res, err := r.q.ExecContext(ctx, `
		DELETE FROM clients
		WHERE client_id = ? AND account_id = ?
	`, clientID, accountID)
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
