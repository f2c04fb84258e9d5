package domain

import "time"

// Client is a registered machine client that authenticates with the
// client-credentials grant. ClientID and ClientSecret are opaque random
// strings generated server-side, never derived from user input.
type Client struct {
	ID              int64      `db:"id"`
	ClientID        string     `db:"client_id"`
	ClientSecret    string     `db:"client_secret"`
	Name            string     `db:"name"`
	AccountID       int64      `db:"account_id"`
	CreatedAt       time.Time  `db:"created_at"`
	SecretExpiresAt *time.Time `db:"secret_expires_at"`
}
