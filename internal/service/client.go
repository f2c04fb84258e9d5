package service

import (
	"context"
	"errors"
	"time"

	"github.com/oddsock-dev/tokend/internal/domain"
	"github.com/oddsock-dev/tokend/internal/store"
	"github.com/oddsock-dev/tokend/pkg/cryptox"
	"github.com/oddsock-dev/tokend/pkg/slogx"
)

var ErrDuplicateClientName = errors.New("duplicate_client_name")

// ClientService is the client registry. Credentials are generated server-side
// with a CSPRNG and never derived from user input.
type ClientService struct {
	Store store.Store
}

// CompareSecret reports whether candidate matches the client's secret. The
// comparison is constant-time; it never short-circuits on the first
// mismatched byte.
func CompareSecret(c domain.Client, candidate string) bool {
	return cryptox.SecureCompare(candidate, c.ClientSecret)
}

// Create registers a new client under the account. The returned client
// carries the plaintext secret; it is shown exactly once and never again.
func (s *ClientService) Create(ctx context.Context, accountID int64, name string) (domain.Client, error) {
	l := slogx.FromContext(ctx)

	clientID, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.Client{}, err
	}
	clientSecret, err := cryptox.GenerateToken(cryptox.TokenSize512)
	if err != nil {
		return domain.Client{}, err
	}

	var created domain.Client
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		created, err = tx.Clients().CreateClient(ctx, domain.Client{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Name:         name,
			AccountID:    accountID,
			CreatedAt:    time.Now().UTC(),
		})
		if errors.Is(err, store.ErrAlreadyExists) {
			return ErrDuplicateClientName
		}
		return err
	})
	if err != nil {
		return domain.Client{}, err
	}

	l.Info("client created", "client_id", created.ClientID, "name", name)
	return created, nil
}

// List returns the account's clients.
func (s *ClientService) List(ctx context.Context, accountID int64) ([]domain.Client, error) {
	return s.Store.Clients().ListClientsForAccount(ctx, accountID)
}

// Get fetches one of the account's clients by its public client_id. A client
// owned by another account is indistinguishable from a missing one.
func (s *ClientService) Get(ctx context.Context, accountID int64, clientID string) (domain.Client, error) {
	client, err := s.Store.Clients().GetClientForAccount(ctx, accountID, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, ErrClientNotFound
		}
		return domain.Client{}, err
	}
	return client, nil
}

// Delete removes one of the account's clients. Tokens issued to it are
// cascade-deleted.
func (s *ClientService) Delete(ctx context.Context, accountID int64, clientID string) error {
	l := slogx.FromContext(ctx)

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		return tx.Clients().DeleteClient(ctx, accountID, clientID)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrClientNotFound
		}
		return err
	}

	l.Info("client deleted", "client_id", clientID)
	return nil
}
