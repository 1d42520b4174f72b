package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/galva-ai/backend/internal/auth"
	"github.com/galva-ai/backend/internal/logging"
)

var (
	ErrInvalidInput = errors.New("incorrect inputs")
	ErrInvalidToken = errors.New("incorrect token")
	ErrNotVerified  = errors.New("please verify email")
)

// Store is the persistence contract the lifecycle manager depends on.
// *Repository is the Postgres implementation.
type Store interface {
	Create(ctx context.Context, email, passwordHash, firstName, lastName, pendingToken string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	ConsumeTokenVerify(ctx context.Context, token string) error
	ConsumeTokenResetPassword(ctx context.Context, token, passwordHash string) error
	ArmPendingToken(ctx context.Context, email, token string) (*Account, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*Account, error)
}

// Notifier delivers token-bearing emails. Delivery is fire-and-forget from
// the manager's perspective: a failed send never rolls back the state change
// that produced the token.
type Notifier interface {
	SendVerificationEmail(ctx context.Context, toEmail, firstName, token string) error
	ResendVerificationEmail(ctx context.Context, toEmail, firstName, token string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, firstName, token string) error
}

// Service is the account lifecycle manager. It owns every state transition:
// create, verify, sign in, reset, delete. All durable state lives in the
// store; the service holds no mutable state of its own.
type Service struct {
	store         Store
	notifier      Notifier
	tokens        auth.TokenService
	logger        *logging.Logger
	tokenDuration time.Duration
}

func NewService(
	store Store,
	notifier Notifier,
	tokens auth.TokenService,
	logger *logging.Logger,
	tokenDuration time.Duration,
) *Service {
	return &Service{
		store:         store,
		notifier:      notifier,
		tokens:        tokens,
		logger:        logger,
		tokenDuration: tokenDuration,
	}
}

// Signup creates an unverified account with a fresh pending token and queues
// the verification email. No account data is returned; the caller must
// verify before anything can be accessed.
func (s *Service) Signup(ctx context.Context, email, firstName, lastName, password string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if firstName == "" {
		return fmt.Errorf("%w: first name is required", ErrInvalidInput)
	}
	if lastName == "" {
		return fmt.Errorf("%w: last name is required", ErrInvalidInput)
	}
	if password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	token, err := newPendingToken()
	if err != nil {
		return err
	}

	acct, err := s.store.Create(ctx, email, passwordHash, firstName, lastName, token)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	// The account exists either way; a lost email is recoverable via /resend.
	if err := s.notifier.SendVerificationEmail(ctx, acct.Email, acct.FirstName, token); err != nil {
		s.logger.Warn("failed to queue verification email", "email", acct.Email, "error", err)
	}

	return nil
}

// Verify consumes a verification token, flipping the account to verified.
// The store clears the token atomically with the flip, so a token can be
// consumed at most once even under concurrent requests.
func (s *Service) Verify(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidToken
	}

	if err := s.store.ConsumeTokenVerify(ctx, token); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("failed to verify account: %w", err)
	}

	return nil
}

// SignIn checks credentials and issues a signed session token. A wrong email
// and a wrong password are deliberately indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, error) {
	if err := validateEmail(email); err != nil {
		return "", err
	}
	if password == "" {
		return "", fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	acct, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get account: %w", err)
	}

	if !verifyPassword(acct.PasswordHash, password) {
		return "", ErrNotFound
	}

	if !acct.IsVerified {
		return "", ErrNotVerified
	}

	token, err := s.tokens.CreateToken(acct.ID, acct.Email, s.tokenDuration)
	if err != nil {
		return "", fmt.Errorf("failed to create session token: %w", err)
	}

	return token, nil
}

// ForgotPassword re-arms the account's pending token and queues the reset
// email. Any previously outstanding token stops working. The token is never
// returned to the caller, only delivered by the notifier.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	acct, token, err := s.rearmToken(ctx, email)
	if err != nil {
		return err
	}

	if err := s.notifier.SendPasswordResetEmail(ctx, acct.Email, acct.FirstName, token); err != nil {
		s.logger.Warn("failed to queue password reset email", "email", acct.Email, "error", err)
	}

	return nil
}

// ResetPassword consumes a reset token and sets the new password. Token and
// password change are a single atomic store operation.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrInvalidToken
	}
	if newPassword == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.store.ConsumeTokenResetPassword(ctx, token, passwordHash); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("failed to reset password: %w", err)
	}

	return nil
}

// ResendVerification re-arms the pending token and queues a fresh
// verification email with the short resend copy. Like the legacy service it
// does not check whether the account is already verified; resending for a
// verified account re-arms a token that nothing will consume.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	acct, token, err := s.rearmToken(ctx, email)
	if err != nil {
		return err
	}

	if err := s.notifier.ResendVerificationEmail(ctx, acct.Email, acct.FirstName, token); err != nil {
		s.logger.Warn("failed to queue verification email", "email", acct.Email, "error", err)
	}

	return nil
}

// UpdatePassword unconditionally sets a new password for an authenticated
// account.
func (s *Service) UpdatePassword(ctx context.Context, accountID uuid.UUID, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.store.UpdatePassword(ctx, accountID, passwordHash); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// Profile returns the displayable account fields.
func (s *Service) Profile(ctx context.Context, accountID uuid.UUID) (*Profile, error) {
	acct, err := s.store.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &Profile{
		Email:     acct.Email,
		FirstName: acct.FirstName,
		LastName:  acct.LastName,
	}, nil
}

// Delete removes the account record.
func (s *Service) Delete(ctx context.Context, accountID uuid.UUID) error {
	if err := s.store.Delete(ctx, accountID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

// List returns a summary of every account.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	accounts, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	summaries := make([]Summary, 0, len(accounts))
	for _, acct := range accounts {
		summaries = append(summaries, Summary{
			ID:         acct.ID,
			Email:      acct.Email,
			FirstName:  acct.FirstName,
			LastName:   acct.LastName,
			IsVerified: acct.IsVerified,
		})
	}
	return summaries, nil
}

// rearmToken generates a fresh pending token and installs it on the account
// looked up by email, invalidating any outstanding one.
func (s *Service) rearmToken(ctx context.Context, email string) (*Account, string, error) {
	token, err := newPendingToken()
	if err != nil {
		return nil, "", err
	}

	acct, err := s.store.ArmPendingToken(ctx, email, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to arm pending token: %w", err)
	}

	return acct, token, nil
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if len(email) > 254 {
		return fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}
	return nil
}
