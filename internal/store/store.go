package store

import (
	"context"
	"errors"
	"time"

	"github.com/oddsock-dev/tokend/internal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Accounts() Accounts
	Clients() Clients
	Tokens() Tokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// This is the recommended way to handle transactions as it automatically
	// handles commit/rollback logic.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	// CreateAccount inserts a new account and returns it with its assigned id.
	CreateAccount(ctx context.Context, name string) (domain.Account, error)

	// GetAccountByID returns an account by id.
	GetAccountByID(ctx context.Context, id int64) (domain.Account, error)

	// IsEmpty returns true if there are no accounts.
	IsEmpty(ctx context.Context) (bool, error)
}

type Clients interface {
	// CreateClient inserts a new client and returns it with its assigned id.
	// A (name, account_id) collision surfaces as ErrAlreadyExists.
	CreateClient(ctx context.Context, c domain.Client) (domain.Client, error)

	// GetClientByClientID fetches a client by its public client_id.
	GetClientByClientID(ctx context.Context, clientID string) (domain.Client, error)

	// GetClientForAccount fetches a client by public client_id, scoped to the
	// owning account. Unowned clients surface as ErrNotFound.
	GetClientForAccount(ctx context.Context, accountID int64, clientID string) (domain.Client, error)

	// GetClientByID fetches a client by its internal id.
	GetClientByID(ctx context.Context, id int64) (domain.Client, error)

	// ListClientsForAccount returns an account's clients ordered by creation
	// date (oldest first).
	ListClientsForAccount(ctx context.Context, accountID int64) ([]domain.Client, error)

	// DeleteClient removes a client owned by the account. Cascades to tokens
	// (per schema). Returns ErrNotFound if no owned row matched.
	DeleteClient(ctx context.Context, accountID int64, clientID string) error
}

// RotateTokenParams carries the replacement values for an in-place token
// rotation. CurrentRefreshToken is the compare-and-swap guard.
type RotateTokenParams struct {
	CurrentRefreshToken   string
	AccessToken           string
	RefreshToken          string
	RefreshedAt           time.Time
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
}

type Tokens interface {
	// CreateToken inserts a new token row and returns it with its assigned id.
	CreateToken(ctx context.Context, t domain.Token) (domain.Token, error)

	// GetTokenByAccessToken fetches a token by its current access_token value.
	GetTokenByAccessToken(ctx context.Context, accessToken string) (domain.Token, error)

	// GetTokenByRefreshToken fetches a token by its current refresh_token value.
	GetTokenByRefreshToken(ctx context.Context, refreshToken string) (domain.Token, error)

	// RotateToken atomically replaces a token's values, guarded on the current
	// refresh_token. If the guard no longer matches (a concurrent rotation
	// won, or the token was deleted) it returns ErrNotFound and writes
	// nothing.
	RotateToken(ctx context.Context, p RotateTokenParams) (domain.Token, error)

	// RevokeToken flips revoked=1 for the token with the given access_token.
	RevokeToken(ctx context.Context, accessToken string) error
}
