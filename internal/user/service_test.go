package user

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/auth"
	"github.com/nekogravitycat/hotel-booking-backend/internal/logging"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memRepo struct {
	users     map[string]*User
	seq       int
	loginErr  error
	lastLogin map[string]time.Time
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[string]*User{}, lastLogin: map[string]time.Time{}}
}

func (m *memRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memRepo) GetByID(_ context.Context, id string) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memRepo) Create(_ context.Context, u *User) error {
	m.seq++
	u.ID = fmt.Sprintf("user-%d", m.seq)
	u.CreatedAt = time.Now()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memRepo) UpdateLastLogin(_ context.Context, id string, t time.Time) error {
	if m.loginErr != nil {
		return m.loginErr
	}
	m.lastLogin[id] = t
	return nil
}

func (m *memRepo) List(_ context.Context, _ UserFilter) ([]*User, int, error) {
	var out []*User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

func (m *memRepo) Update(_ context.Context, u *User) error {
	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.IsActive = false
	return nil
}

func newTestService(repo Repository) *service {
	hasher := auth.NewBcryptPasswordHasherWithCost(bcrypt.MinCost)
	return NewService(repo, hasher, logging.Discard()).(*service)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes email and hashes password", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo)

		u, err := svc.Register(ctx, "  Front.Desk@Hotel.test ", "s3cret-pass", " Front Desk ")
		require.NoError(t, err)
		assert.Equal(t, "front.desk@hotel.test", u.Email)
		require.NotNil(t, u.DisplayName)
		assert.Equal(t, "Front Desk", *u.DisplayName)
		assert.True(t, u.IsActive)
		assert.False(t, u.IsSystemAdmin)
		assert.NotEqual(t, "s3cret-pass", u.PasswordHash)
	})

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"empty email", "   ", "s3cret-pass", ErrEmailRequired},
		{"short password", "a@hotel.test", "short", ErrPasswordTooShort},
		{"duplicate email", "taken@hotel.test", "s3cret-pass", ErrEmailAlreadyUsed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemRepo()
			svc := newTestService(repo)
			_, err := svc.Register(ctx, "taken@hotel.test", "s3cret-pass", "")
			require.NoError(t, err)

			_, err = svc.Register(ctx, tt.email, tt.password, "")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := newTestService(repo)
	fixed := time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	u, err := svc.Register(ctx, "desk@hotel.test", "s3cret-pass", "")
	require.NoError(t, err)

	t.Run("success records last login", func(t *testing.T) {
		got, err := svc.Login(ctx, "DESK@hotel.test", "s3cret-pass")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		require.NotNil(t, got.LastLoginAt)
		assert.Equal(t, fixed, repo.lastLogin[u.ID])
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "desk@hotel.test", "wrong-pass")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, "ghost@hotel.test", "s3cret-pass")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("last login failure does not block", func(t *testing.T) {
		repo.loginErr = errors.New("db down")
		defer func() { repo.loginErr = nil }()
		got, err := svc.Login(ctx, "desk@hotel.test", "s3cret-pass")
		require.NoError(t, err)
		assert.Nil(t, got.LastLoginAt)
	})

	t.Run("unreadable hash is logged", func(t *testing.T) {
		logger, hook := logtest.NewNullLogger()
		svc.logger = logger
		defer func() { svc.logger = logging.Discard() }()

		good := repo.users[u.ID].PasswordHash
		repo.users[u.ID].PasswordHash = "not-a-bcrypt-hash"
		defer func() { repo.users[u.ID].PasswordHash = good }()

		_, err := svc.Login(ctx, "desk@hotel.test", "s3cret-pass")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		require.NotNil(t, hook.LastEntry())
		assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
		assert.Equal(t, u.ID, hook.LastEntry().Data["user_id"])
	})

	t.Run("inactive user", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, u.ID))
		_, err := svc.Login(ctx, "desk@hotel.test", "s3cret-pass")
		assert.ErrorIs(t, err, ErrInactiveUser)
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := newTestService(repo)

	u, err := svc.Register(ctx, "manager@hotel.test", "s3cret-pass", "Manager")
	require.NoError(t, err)

	admin := true
	blank := "  "
	got, err := svc.Update(ctx, u.ID, UpdateUserRequest{IsSystemAdmin: &admin, DisplayName: &blank})
	require.NoError(t, err)
	assert.True(t, got.IsSystemAdmin)
	assert.Nil(t, got.DisplayName)

	_, err = svc.Update(ctx, "missing", UpdateUserRequest{})
	assert.ErrorIs(t, err, ErrNotFound)
}
