package accounts_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	accounts "github.com/finbase/go-accounts"
)

// memoryUsers is an in memory Users store keyed by email, enough to run the
// full sign-up and sign-in flow without a database.
type memoryUsers struct {
	accounts.Users

	mu      sync.Mutex
	byEmail map[string]*accounts.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byEmail: map[string]*accounts.User{}}
}

func (m *memoryUsers) GetByEmail(ctx context.Context, email string) (*accounts.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.byEmail[email]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}
	return user, nil
}

func (m *memoryUsers) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*accounts.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.byEmail {
		if user.ID.String() == id {
			return user, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

func (m *memoryUsers) RegisterTx(ctx context.Context, tx bun.IDB, user *accounts.User) (*accounts.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byEmail[user.Email]; exists {
		return nil, assertUniqueViolation{}
	}
	m.byEmail[user.Email] = user
	return user, nil
}

func (m *memoryUsers) StoreLatestToken(ctx context.Context, user *accounts.User, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user.LatestToken = token
	return nil
}

func (m *memoryUsers) TrackAttemptedLogin(ctx context.Context, user *accounts.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	user.LoginAttempts++
	user.LoginAttemptAt = &now
	return nil
}

func (m *memoryUsers) TrackSuccessfulLogin(ctx context.Context, user *accounts.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user.LoginAttempts = 0
	user.LoginAttemptAt = nil
	return nil
}

type assertUniqueViolation struct{}

func (assertUniqueViolation) Error() string {
	return "UNIQUE constraint failed: users.email"
}

type memoryRepo struct {
	users *memoryUsers
}

func (r *memoryRepo) Validate() error { return nil }
func (r *memoryRepo) MustValidate()   {}
func (r *memoryRepo) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	var tx bun.Tx
	return f(ctx, tx)
}
func (r *memoryRepo) Users() accounts.Users { return r.users }

func TestSignUpThenSignInFlow(t *testing.T) {
	ctx := context.Background()

	service := accounts.NewAccountService(&memoryRepo{users: newMemoryUsers()}, serviceConfig{})

	signUp := accounts.SignUpInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "password12345",
	}

	// First sign-up succeeds and hands back a usable token.
	created, err := service.SignUp(ctx, signUp)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.NotEmpty(t, created.Token)

	claims, err := service.VerifyToken(created.Token)
	require.NoError(t, err)
	assert.Equal(t, created.User.ID.String(), claims.UserID())

	// A second sign-up for the same email is a conflict.
	_, err = service.SignUp(ctx, signUp)
	require.Error(t, err)
	assert.ErrorIs(t, err, accounts.ErrEmailAlreadyRegistered)

	// Signing in with the right password issues a fresh token, distinct from
	// the sign-up one.
	signedIn, err := service.SignIn(ctx, accounts.SignInInput{
		Email:    signUp.Email,
		Password: signUp.Password,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, signedIn.Token)
	assert.NotEqual(t, created.Token, signedIn.Token)
	assert.Equal(t, signedIn.Token, signedIn.User.LatestToken)

	// The wrong password gets the generic credentials error.
	_, err = service.SignIn(ctx, accounts.SignInInput{
		Email:    signUp.Email,
		Password: "not-the-password",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, accounts.ErrMismatchedHashAndPassword)

	// So does a sign-in for an address that was never registered.
	_, err = service.SignIn(ctx, accounts.SignInInput{
		Email:    "ghost@example.com",
		Password: signUp.Password,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, accounts.ErrMismatchedHashAndPassword)

	// The account behind the fresh token resolves back to the same user.
	user, err := service.UserFromToken(ctx, signedIn.Token)
	require.NoError(t, err)
	assert.Equal(t, created.User.ID, user.ID)
}

func TestRepeatedFailuresLockTheAccount(t *testing.T) {
	ctx := context.Background()

	service := accounts.NewAccountService(&memoryRepo{users: newMemoryUsers()}, serviceConfig{})

	signUp := accounts.SignUpInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "password12345",
	}

	_, err := service.SignUp(ctx, signUp)
	require.NoError(t, err)

	badInput := accounts.SignInInput{
		Email:    signUp.Email,
		Password: "not-the-password",
	}

	for i := 0; i <= accounts.MaxLoginAttempts; i++ {
		_, err = service.SignIn(ctx, badInput)
		require.ErrorIs(t, err, accounts.ErrMismatchedHashAndPassword)
	}

	// One more attempt trips the cooldown, even with the right password.
	_, err = service.SignIn(ctx, accounts.SignInInput{
		Email:    signUp.Email,
		Password: signUp.Password,
	})
	require.ErrorIs(t, err, accounts.ErrTooManyLoginAttempts)
}
