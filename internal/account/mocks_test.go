package account_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/galva-ai/backend/internal/account"
)

func uuidNew(t *testing.T) uuid.UUID {
	t.Helper()
	return uuid.New()
}

// fakeStore is an in-memory Store with the same observable semantics as the
// Postgres repository, including atomic token consumption.
type fakeStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*account.Account
}

func newFakeStore() *fakeStore {
	return &fakeStore{accounts: make(map[uuid.UUID]*account.Account)}
}

func (s *fakeStore) Create(_ context.Context, email, passwordHash, firstName, lastName, pendingToken string) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acct := range s.accounts {
		if acct.Email == email {
			return nil, account.ErrDuplicateEmail
		}
	}

	acct := &account.Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
		IsVerified:   false,
		PendingToken: pendingToken,
	}
	s.accounts[acct.ID] = acct

	cp := *acct
	return &cp, nil
}

func (s *fakeStore) GetByEmail(_ context.Context, email string) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acct := range s.accounts {
		if acct.Email == email {
			cp := *acct
			return &cp, nil
		}
	}
	return nil, account.ErrNotFound
}

func (s *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	cp := *acct
	return &cp, nil
}

func (s *fakeStore) ConsumeTokenVerify(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acct := range s.accounts {
		if acct.PendingToken != "" && acct.PendingToken == token {
			acct.IsVerified = true
			acct.PendingToken = ""
			return nil
		}
	}
	return account.ErrNotFound
}

func (s *fakeStore) ConsumeTokenResetPassword(_ context.Context, token, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acct := range s.accounts {
		if acct.PendingToken != "" && acct.PendingToken == token {
			acct.PasswordHash = passwordHash
			acct.PendingToken = ""
			return nil
		}
	}
	return account.ErrNotFound
}

func (s *fakeStore) ArmPendingToken(_ context.Context, email, token string) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acct := range s.accounts {
		if acct.Email == email {
			acct.PendingToken = token
			cp := *acct
			return &cp, nil
		}
	}
	return nil, account.ErrNotFound
}

func (s *fakeStore) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[id]
	if !ok {
		return account.ErrNotFound
	}
	acct.PasswordHash = passwordHash
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return account.ErrNotFound
	}
	delete(s.accounts, id)
	return nil
}

func (s *fakeStore) List(_ context.Context) ([]*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := make([]*account.Account, 0, len(s.accounts))
	for _, acct := range s.accounts {
		cp := *acct
		accounts = append(accounts, &cp)
	}
	return accounts, nil
}

// byEmail returns the stored record for assertions.
func (s *fakeStore) byEmail(email string) *account.Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acct := range s.accounts {
		if acct.Email == email {
			cp := *acct
			return &cp
		}
	}
	return nil
}

type sentEmail struct {
	To        string
	FirstName string
	Token     string
}

// fakeNotifier records queued emails; sendErr simulates outbox failures.
type fakeNotifier struct {
	mu            sync.Mutex
	verifications []sentEmail
	resends       []sentEmail
	resets        []sentEmail
	sendErr       error
}

func (n *fakeNotifier) SendVerificationEmail(_ context.Context, toEmail, firstName, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.sendErr != nil {
		return n.sendErr
	}
	n.verifications = append(n.verifications, sentEmail{To: toEmail, FirstName: firstName, Token: token})
	return nil
}

func (n *fakeNotifier) ResendVerificationEmail(_ context.Context, toEmail, firstName, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.sendErr != nil {
		return n.sendErr
	}
	n.resends = append(n.resends, sentEmail{To: toEmail, FirstName: firstName, Token: token})
	return nil
}

func (n *fakeNotifier) SendPasswordResetEmail(_ context.Context, toEmail, firstName, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.sendErr != nil {
		return n.sendErr
	}
	n.resets = append(n.resets, sentEmail{To: toEmail, FirstName: firstName, Token: token})
	return nil
}

func (n *fakeNotifier) lastVerification() *sentEmail {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.verifications) == 0 {
		return nil
	}
	cp := n.verifications[len(n.verifications)-1]
	return &cp
}

func (n *fakeNotifier) lastResend() *sentEmail {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.resends) == 0 {
		return nil
	}
	cp := n.resends[len(n.resends)-1]
	return &cp
}

func (n *fakeNotifier) lastReset() *sentEmail {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.resets) == 0 {
		return nil
	}
	cp := n.resets[len(n.resets)-1]
	return &cp
}
