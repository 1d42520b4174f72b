package account

import (
	"time"

	"github.com/google/uuid"
)

// Account is the domain model for a user account.
//
// An account moves through three states: unverified with a pending
// verification token, verified with no outstanding flow, and verified with a
// pending password reset token. PendingToken is empty outside those flows.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never exposed in JSON
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	IsVerified   bool      `json:"isVerified"`
	PendingToken string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Profile is the subset of account data returned to authenticated callers.
type Profile struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Summary is the per-account shape of the admin listing. The legacy service
// dumped full records; the hash and pending token are deliberately omitted.
type Summary struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	IsVerified bool      `json:"isVerified"`
}
