package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/galva-ai/backend/internal/database"
)

var (
	ErrNotFound       = errors.New("no user exists")
	ErrDuplicateEmail = errors.New("email already exists")
)

// Repository handles account persistence.
//
// Token consumption and re-arming are single UPDATE statements keyed on the
// token or email, so concurrent requests serialize on the row: only one of
// two racing verifications can observe a match before the token is cleared.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new unverified account with an armed pending token.
func (r *Repository) Create(ctx context.Context, email, passwordHash, firstName, lastName, pendingToken string) (*Account, error) {
	dbAccount := &database.Account{
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
		IsVerified:   false,
		PendingToken: pendingToken,
	}

	_, err := r.db.NewInsert().
		Model(dbAccount).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return mapDBAccountToModel(dbAccount), nil
}

// GetByEmail retrieves an account by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	dbAccount := new(database.Account)
	err := r.db.NewSelect().
		Model(dbAccount).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}

	return mapDBAccountToModel(dbAccount), nil
}

// GetByID retrieves an account by id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	dbAccount := new(database.Account)
	err := r.db.NewSelect().
		Model(dbAccount).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account by id: %w", err)
	}

	return mapDBAccountToModel(dbAccount), nil
}

// ConsumeTokenVerify marks the account matching the pending token as verified
// and clears the token in the same statement.
func (r *Repository) ConsumeTokenVerify(ctx context.Context, token string) error {
	result, err := r.db.NewUpdate().
		Model((*database.Account)(nil)).
		Set("is_verified = ?", true).
		Set("pending_token = ''").
		Set("updated_at = now()").
		Where("pending_token = ?", token).
		Where("pending_token <> ''").
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to consume verification token: %w", err)
	}

	return requireRowsAffected(result)
}

// ConsumeTokenResetPassword sets a new password hash on the account matching
// the pending token and clears the token in the same statement.
func (r *Repository) ConsumeTokenResetPassword(ctx context.Context, token, passwordHash string) error {
	result, err := r.db.NewUpdate().
		Model((*database.Account)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("pending_token = ''").
		Set("updated_at = now()").
		Where("pending_token = ?", token).
		Where("pending_token <> ''").
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to consume reset token: %w", err)
	}

	return requireRowsAffected(result)
}

// ArmPendingToken overwrites the account's pending token, invalidating any
// previously issued one (last writer wins). Returns the updated account; the
// caller needs the first name for the outgoing email.
func (r *Repository) ArmPendingToken(ctx context.Context, email, token string) (*Account, error) {
	dbAccount := new(database.Account)
	result, err := r.db.NewUpdate().
		Model(dbAccount).
		Set("pending_token = ?", token).
		Set("updated_at = now()").
		Where("email = ?", email).
		Returning("*").
		Exec(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to arm pending token: %w", err)
	}

	// A zero-match update reports through RowsAffected, not the scan error.
	if err := requireRowsAffected(result); err != nil {
		return nil, err
	}

	return mapDBAccountToModel(dbAccount), nil
}

// UpdatePassword sets a new password hash for the given account id.
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	result, err := r.db.NewUpdate().
		Model((*database.Account)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("updated_at = now()").
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return requireRowsAffected(result)
}

// Delete removes the account with the given id.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.NewDelete().
		Model((*database.Account)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	return requireRowsAffected(result)
}

// List returns all accounts ordered by creation time.
func (r *Repository) List(ctx context.Context) ([]*Account, error) {
	var dbAccounts []*database.Account
	err := r.db.NewSelect().
		Model(&dbAccounts).
		Order("created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	accounts := make([]*Account, 0, len(dbAccounts))
	for _, dba := range dbAccounts {
		accounts = append(accounts, mapDBAccountToModel(dba))
	}
	return accounts, nil
}

func requireRowsAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// mapDBAccountToModel converts the persistence model to the domain model.
func mapDBAccountToModel(dba *database.Account) *Account {
	return &Account{
		ID:           dba.ID,
		Email:        dba.Email,
		PasswordHash: dba.PasswordHash,
		FirstName:    dba.FirstName,
		LastName:     dba.LastName,
		IsVerified:   dba.IsVerified,
		PendingToken: dba.PendingToken,
		CreatedAt:    dba.CreatedAt,
		UpdatedAt:    dba.UpdatedAt,
	}
}
