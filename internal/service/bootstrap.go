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

var (
	ErrBootstrapAlready      = errors.New("system already bootstrapped")
	ErrBootstrapUnauthorized = errors.New("unauthorized bootstrap attempt")
)

// BootstrapService creates the first account and its first client on an empty
// store. If Token is set, callers must present it.
type BootstrapService struct {
	Store store.Store
	Token string // Pre-configured bootstrap token; empty disables the check
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Store.Accounts().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !empty, nil
}

// Bootstrap creates the account and client in one transaction and returns the
// one-time client credentials.
func (s *BootstrapService) Bootstrap(
	ctx context.Context,
	token, accountName, clientName string,
) (domain.Account, domain.Client, error) {
	l := slogx.FromContext(ctx)

	if bootstrapped, err := s.IsBootstrapped(ctx); err != nil {
		return domain.Account{}, domain.Client{}, err
	} else if bootstrapped {
		l.Warn("attempted bootstrap on already-bootstrapped system")
		return domain.Account{}, domain.Client{}, ErrBootstrapAlready
	}

	if s.Token != "" && token != s.Token {
		l.Warn("unauthorized bootstrap attempt")
		return domain.Account{}, domain.Client{}, ErrBootstrapUnauthorized
	}

	clientID, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.Account{}, domain.Client{}, err
	}
	clientSecret, err := cryptox.GenerateToken(cryptox.TokenSize512)
	if err != nil {
		return domain.Account{}, domain.Client{}, err
	}

	var (
		account domain.Account
		client  domain.Client
	)
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		// Re-check inside the transaction so two concurrent bootstraps
		// cannot both succeed.
		empty, err := tx.Accounts().IsEmpty(ctx)
		if err != nil {
			return err
		}
		if !empty {
			return ErrBootstrapAlready
		}

		account, err = tx.Accounts().CreateAccount(ctx, accountName)
		if err != nil {
			return err
		}

		client, err = tx.Clients().CreateClient(ctx, domain.Client{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Name:         clientName,
			AccountID:    account.ID,
			CreatedAt:    time.Now().UTC(),
		})
		return err
	})
	if err != nil {
		return domain.Account{}, domain.Client{}, err
	}

	l.Info("system bootstrapped",
		slog.Int64("account_id", account.ID),
		slog.String("client_id", client.ClientID),
	)
	return account, client, nil
}
