package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/invoicely/invoicely/internal/shared"
)

type memoryRepo struct {
	users    map[string]*User
	sessions map[string]int64
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: map[string]*User{}, sessions: map[string]int64{}}
}

func (m *memoryRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	u, ok := m.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (m *memoryRepo) CreateUser(_ context.Context, email, hash string) (*User, error) {
	if _, ok := m.users[email]; ok {
		return nil, shared.ErrEmailTaken
	}
	m.nextID++
	u := &User{ID: m.nextID, Email: email, PasswordHash: hash, IsActive: true}
	m.users[email] = u
	return u, nil
}

func (m *memoryRepo) CreateSession(_ context.Context, id string, userID int64, _ time.Time, _, _ string) error {
	m.sessions[id] = userID
	return nil
}

func (m *memoryRepo) DeleteSession(_ context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

func TestSignUpThenAuthenticate(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo).WithHashCost(bcrypt.MinCost)

	user, err := svc.SignUp(context.Background(), "  Ada@Example.com ", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)

	got, err := svc.Authenticate(context.Background(), "ADA@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(context.Background(), "ada@example.com", "wrong")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestSignUpRejectsDuplicatesAndShortPasswords(t *testing.T) {
	svc := NewService(newMemoryRepo()).WithHashCost(bcrypt.MinCost)

	_, err := svc.SignUp(context.Background(), "a@b.io", "short")
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.SignUp(context.Background(), "a@b.io", "longenough")
	require.NoError(t, err)
	_, err = svc.SignUp(context.Background(), "a@b.io", "longenough")
	assert.ErrorIs(t, err, shared.ErrEmailTaken)
}

func TestAuthenticateRejectsInactiveUsers(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo).WithHashCost(bcrypt.MinCost)
	user, err := svc.SignUp(context.Background(), "off@b.io", "longenough")
	require.NoError(t, err)
	user.IsActive = false

	_, err = svc.Authenticate(context.Background(), "off@b.io", "longenough")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}
