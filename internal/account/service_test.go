package account_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galva-ai/backend/internal/account"
	"github.com/galva-ai/backend/internal/auth"
	"github.com/galva-ai/backend/internal/logging"
)

func newTestService(t *testing.T) (*account.Service, *fakeStore, *fakeNotifier) {
	t.Helper()

	store := newFakeStore()
	notifier := &fakeNotifier{}

	tokens, err := auth.NewJWTService([]byte("test-secret"))
	require.NoError(t, err)

	svc := account.NewService(store, notifier, tokens, logging.NewLogger(true), time.Hour)
	return svc, store, notifier
}

func signup(t *testing.T, svc *account.Service) {
	t.Helper()
	err := svc.Signup(context.Background(), "a@b.com", "A", "B", "p1")
	require.NoError(t, err)
}

func TestSignup_CreatesUnverifiedAccountWithPendingToken(t *testing.T) {
	t.Parallel()

	svc, store, notifier := newTestService(t)
	signup(t, svc)

	acct := store.byEmail("a@b.com")
	require.NotNil(t, acct)
	assert.False(t, acct.IsVerified)
	assert.Len(t, acct.PendingToken, 10)
	assert.NotEqual(t, "p1", acct.PasswordHash, "password must not be stored verbatim")

	sent := notifier.lastVerification()
	require.NotNil(t, sent, "verification email must be queued")
	assert.Equal(t, "a@b.com", sent.To)
	assert.Equal(t, "A", sent.FirstName)
	assert.Equal(t, acct.PendingToken, sent.Token)
}

func TestSignup_InvalidInput(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		email     string
		firstName string
		lastName  string
		password  string
	}{
		{"empty email", "", "A", "B", "p1"},
		{"malformed email", "not-an-email", "A", "B", "p1"},
		{"empty first name", "a@b.com", "", "B", "p1"},
		{"empty last name", "a@b.com", "A", "", "p1"},
		{"empty password", "a@b.com", "A", "B", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Signup(ctx, tt.email, tt.firstName, tt.lastName, tt.password)
			assert.ErrorIs(t, err, account.ErrInvalidInput)
		})
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	signup(t, svc)

	// Other field values do not matter.
	err := svc.Signup(context.Background(), "a@b.com", "X", "Y", "other")
	assert.ErrorIs(t, err, account.ErrDuplicateEmail)
}

func TestSignup_NotifierFailureDoesNotFailSignup(t *testing.T) {
	t.Parallel()

	svc, store, notifier := newTestService(t)
	notifier.sendErr = assert.AnError

	err := svc.Signup(context.Background(), "a@b.com", "A", "B", "p1")
	require.NoError(t, err)
	require.NotNil(t, store.byEmail("a@b.com"), "account must exist even when the email could not be queued")
}

func TestVerify_ConsumesTokenAtMostOnce(t *testing.T) {
	t.Parallel()

	svc, store, notifier := newTestService(t)
	signup(t, svc)

	token := notifier.lastVerification().Token
	ctx := context.Background()

	require.NoError(t, svc.Verify(ctx, token))
	acct := store.byEmail("a@b.com")
	assert.True(t, acct.IsVerified)
	assert.Empty(t, acct.PendingToken, "token must be cleared with the verification")

	// The token was consumed; a second attempt must fail.
	assert.ErrorIs(t, svc.Verify(ctx, token), account.ErrInvalidToken)
}

func TestVerify_UnknownToken(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	assert.ErrorIs(t, svc.Verify(context.Background(), "nosuchtok1"), account.ErrInvalidToken)
	assert.ErrorIs(t, svc.Verify(context.Background(), ""), account.ErrInvalidToken)
}

func TestSignIn_RequiresVerification(t *testing.T) {
	t.Parallel()

	svc, _, notifier := newTestService(t)
	signup(t, svc)
	ctx := context.Background()

	_, err := svc.SignIn(ctx, "a@b.com", "p1")
	assert.ErrorIs(t, err, account.ErrNotVerified)

	require.NoError(t, svc.Verify(ctx, notifier.lastVerification().Token))

	token, err := svc.SignIn(ctx, "a@b.com", "p1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestSignIn_WrongCredentialsAreIndistinguishable(t *testing.T) {
	t.Parallel()

	svc, _, notifier := newTestService(t)
	signup(t, svc)
	ctx := context.Background()
	require.NoError(t, svc.Verify(ctx, notifier.lastVerification().Token))

	_, err := svc.SignIn(ctx, "a@b.com", "wrong")
	assert.ErrorIs(t, err, account.ErrNotFound)

	_, err = svc.SignIn(ctx, "other@b.com", "p1")
	assert.ErrorIs(t, err, account.ErrNotFound)
}

func TestSignIn_TokenCarriesAccountID(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	notifier := &fakeNotifier{}
	tokens, err := auth.NewJWTService([]byte("test-secret"))
	require.NoError(t, err)
	svc := account.NewService(store, notifier, tokens, logging.NewLogger(true), time.Hour)

	ctx := context.Background()
	require.NoError(t, svc.Signup(ctx, "a@b.com", "A", "B", "p1"))
	require.NoError(t, svc.Verify(ctx, notifier.lastVerification().Token))

	sessionToken, err := svc.SignIn(ctx, "a@b.com", "p1")
	require.NoError(t, err)

	claims, err := tokens.VerifyToken(sessionToken)
	require.NoError(t, err)
	assert.Equal(t, store.byEmail("a@b.com").ID.String(), claims.UserID)
	assert.Equal(t, "a@b.com", claims.Email)
}

func TestForgotPassword_RearmsTokenAndInvalidatesPrevious(t *testing.T) {
	t.Parallel()

	svc, _, notifier := newTestService(t)
	signup(t, svc)
	ctx := context.Background()

	staleToken := notifier.lastVerification().Token
	require.NoError(t, svc.Verify(ctx, staleToken))

	require.NoError(t, svc.ForgotPassword(ctx, "a@b.com"))
	first := notifier.lastReset()
	require.NotNil(t, first)

	// A second request overwrites the first token; last writer wins.
	require.NoError(t, svc.ForgotPassword(ctx, "a@b.com"))
	second := notifier.lastReset()
	require.NotEqual(t, first.Token, second.Token)

	assert.ErrorIs(t, svc.ResetPassword(ctx, first.Token, "new"), account.ErrInvalidToken)
	assert.NoError(t, svc.ResetPassword(ctx, second.Token, "new"))
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	assert.ErrorIs(t, svc.ForgotPassword(context.Background(), "ghost@b.com"), account.ErrNotFound)
}

func TestResetPassword_ChangesPasswordAndClearsToken(t *testing.T) {
	t.Parallel()

	svc, store, notifier := newTestService(t)
	signup(t, svc)
	ctx := context.Background()
	require.NoError(t, svc.Verify(ctx, notifier.lastVerification().Token))

	require.NoError(t, svc.ForgotPassword(ctx, "a@b.com"))
	resetToken := notifier.lastReset().Token

	require.NoError(t, svc.ResetPassword(ctx, resetToken, "p2"))
	assert.Empty(t, store.byEmail("a@b.com").PendingToken)

	_, err := svc.SignIn(ctx, "a@b.com", "p1")
	assert.ErrorIs(t, err, account.ErrNotFound, "old password must no longer work")

	_, err = svc.SignIn(ctx, "a@b.com", "p2")
	assert.NoError(t, err)

	// The reset token was consumed.
	assert.ErrorIs(t, svc.ResetPassword(ctx, resetToken, "p3"), account.ErrInvalidToken)
}

func TestResetPassword_EmptyPassword(t *testing.T) {
	t.Parallel()

	svc, _, notifier := newTestService(t)
	signup(t, svc)
	ctx := context.Background()
	require.NoError(t, svc.ForgotPassword(ctx, "a@b.com"))

	err := svc.ResetPassword(ctx, notifier.lastReset().Token, "")
	assert.ErrorIs(t, err, account.ErrInvalidInput)
}

func TestResendVerification_RearmsToken(t *testing.T) {
	t.Parallel()

	svc, _, notifier := newTestService(t)
	signup(t, svc)
	ctx := context.Background()

	original := notifier.lastVerification().Token

	require.NoError(t, svc.ResendVerification(ctx, "a@b.com"))
	resent := notifier.lastResend().Token
	require.NotEqual(t, original, resent)
	assert.Len(t, notifier.verifications, 1, "a resend must not be queued as a signup email")

	assert.ErrorIs(t, svc.Verify(ctx, original), account.ErrInvalidToken)
	assert.NoError(t, svc.Verify(ctx, resent))
}

func TestResendVerification_IgnoresVerifiedState(t *testing.T) {
	t.Parallel()

	svc, store, notifier := newTestService(t)
	signup(t, svc)
	ctx := context.Background()
	require.NoError(t, svc.Verify(ctx, notifier.lastVerification().Token))

	// Legacy behavior: resending for a verified account re-arms a token.
	require.NoError(t, svc.ResendVerification(ctx, "a@b.com"))
	assert.NotEmpty(t, store.byEmail("a@b.com").PendingToken)
}

func TestResendVerification_UnknownEmail(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	assert.ErrorIs(t, svc.ResendVerification(context.Background(), "ghost@b.com"), account.ErrNotFound)
}

func TestUpdatePassword(t *testing.T) {
	t.Parallel()

	svc, store, notifier := newTestService(t)
	signup(t, svc)
	ctx := context.Background()
	require.NoError(t, svc.Verify(ctx, notifier.lastVerification().Token))

	id := store.byEmail("a@b.com").ID
	require.NoError(t, svc.UpdatePassword(ctx, id, "p2"))

	_, err := svc.SignIn(ctx, "a@b.com", "p2")
	assert.NoError(t, err)

	assert.ErrorIs(t, svc.UpdatePassword(ctx, id, ""), account.ErrInvalidInput)
}

func TestUpdatePassword_UnknownID(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	err := svc.UpdatePassword(context.Background(), uuidNew(t), "p2")
	assert.ErrorIs(t, err, account.ErrNotFound)
}

func TestProfile(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)
	signup(t, svc)
	ctx := context.Background()

	profile, err := svc.Profile(ctx, store.byEmail("a@b.com").ID)
	require.NoError(t, err)
	assert.Equal(t, &account.Profile{Email: "a@b.com", FirstName: "A", LastName: "B"}, profile)

	_, err = svc.Profile(ctx, uuidNew(t))
	assert.ErrorIs(t, err, account.ErrNotFound)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)
	signup(t, svc)
	ctx := context.Background()

	id := store.byEmail("a@b.com").ID
	require.NoError(t, svc.Delete(ctx, id))
	assert.Nil(t, store.byEmail("a@b.com"))

	assert.ErrorIs(t, svc.Delete(ctx, id), account.ErrNotFound)
}

func TestList(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.Signup(ctx, "a@b.com", "A", "B", "p1"))
	require.NoError(t, svc.Signup(ctx, "c@d.com", "C", "D", "p2"))

	summaries, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	emails := []string{summaries[0].Email, summaries[1].Email}
	assert.ElementsMatch(t, []string{"a@b.com", "c@d.com"}, emails)
	for _, s := range summaries {
		assert.False(t, s.IsVerified)
	}
}
