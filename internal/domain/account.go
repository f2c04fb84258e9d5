package domain

import "time"

// Account is the owning principal for API clients. Password login lives in a
// separate system, so the record is deliberately small.
type Account struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}
