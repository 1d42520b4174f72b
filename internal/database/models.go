package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the persistence model for user accounts.
//
// PendingToken holds the single outstanding verification or password reset
// token; the empty string means no flow is outstanding. It is consumed
// atomically with the state change it authorizes.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:a"`

	ID           uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	FirstName    string    `bun:"first_name,notnull"`
	LastName     string    `bun:"last_name,notnull"`
	IsVerified   bool      `bun:"is_verified,notnull,default:false"`
	PendingToken string    `bun:"pending_token,notnull,default:''"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// EnsureSchema creates the accounts table and its indexes if they do not
// exist. gen_random_uuid requires the pgcrypto extension on Postgres < 13.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().
		Model((*Account)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return err
	}

	// Token lookups drive the verify and reset flows.
	if _, err := db.NewCreateIndex().
		Model((*Account)(nil)).
		Index("accounts_pending_token_idx").
		Column("pending_token").
		IfNotExists().
		Exec(ctx); err != nil {
		return err
	}

	return nil
}
