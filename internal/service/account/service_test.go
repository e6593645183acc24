package account

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/staff-directory/internal/authz"
	"github.com/aimd54/staff-directory/internal/backend"
	"github.com/aimd54/staff-directory/internal/config"
	"github.com/aimd54/staff-directory/internal/session"
	"github.com/aimd54/staff-directory/pkg/logger"
	"github.com/aimd54/staff-directory/test/mocks"
)

const domain = "tatatechnologies.com"

func newService(t *testing.T) (*Service, *mocks.BackendServer, *session.RedisStore) {
	t.Helper()

	srv := mocks.NewBackendServer()
	t.Cleanup(srv.Close)
	srv.PutEmployee(map[string]any{"empid": "501", "name": "Meera Iyer", "role_type": "employee"})
	srv.PutEmployee(map[string]any{"empid": "900", "name": "Vikram Rao", "role_type": "Manager"})
	srv.AddAccount("meera.iyer@"+domain, "secret1", "501")
	srv.AddAccount("vikram.rao@"+domain, "secret2", "900")

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := session.NewRedisStore(rdb, time.Hour, "")

	client := backend.NewClient(&config.BackendConfig{BaseURL: srv.URL}, logger.Nop())
	tokens := NewTokens("test-secret", "staff-directory", time.Hour)
	return NewService(client, store, tokens, domain, logger.Nop()), srv, store
}

func TestLogin(t *testing.T) {
	svc, _, store := newService(t)
	ctx := context.Background()

	res, err := svc.Login(ctx, "meera.iyer@"+domain, "secret1")
	require.NoError(t, err)
	assert.Equal(t, authz.ScreenDetails, res.Landing)
	assert.Equal(t, "Meera Iyer", res.Session.User.Name)

	claims, err := svc.Tokens().Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.Session.ID, claims.SessionID)
	assert.Equal(t, "501", claims.EmpID)
	assert.WithinDuration(t, res.ExpiresAt, claims.ExpiresAt.Time, time.Second)

	sess, err := store.Get(ctx, claims.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "501", sess.User.EmpID)
}

func TestLogin_ManagerLandsOnDashboard(t *testing.T) {
	svc, _, _ := newService(t)

	res, err := svc.Login(context.Background(), "vikram.rao@"+domain, "secret2")
	require.NoError(t, err)
	assert.Equal(t, authz.ScreenDashboard, res.Landing)
}

func TestLogin_InputChecks(t *testing.T) {
	svc, srv, _ := newService(t)

	tests := []struct {
		name     string
		email    string
		password string
		want     string
	}{
		{"missing email", "", "x", "Please fill in all required fields."},
		{"missing password", "meera.iyer@" + domain, "", "Please fill in all required fields."},
		{"other domain", "meera@example.com", "x", "Please enter a valid email address."},
		{"whitespace in local part", "meera iyer@" + domain, "x", "Please enter a valid email address."},
		{"subdomain", "meera@mail." + domain, "x", "Please enter a valid email address."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tt.email, tt.password)
			var inputErr *InputError
			require.True(t, errors.As(err, &inputErr))
			assert.Equal(t, tt.want, inputErr.Message)
		})
	}
	assert.Empty(t, srv.Calls())
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Login(context.Background(), "meera.iyer@"+domain, "nope")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, backend.StatusCode(err))
	assert.Contains(t, err.Error(), "Invalid email or password")
}

func TestLogout(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	res, err := svc.Login(ctx, "meera.iyer@"+domain, "secret1")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, res.Session.ID))
	_, err = svc.Session(ctx, res.Session.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)

	assert.NoError(t, svc.Logout(ctx, res.Session.ID))
}

func TestUpdatePassword_Rules(t *testing.T) {
	svc, srv, _ := newService(t)

	tests := []struct {
		name                   string
		current, next, confirm string
		want                   string
	}{
		{"missing", "", "abcdef", "abcdef", "Please fill in all fields."},
		{"mismatch", "secret1", "abcdef", "abcdeg", "New passwords do not match."},
		{"same", "secret1", "secret1", "secret1", "New Password cannot be the same as Current Password."},
		{"short", "secret1", "abc", "abc", "Password must be at least 6 characters long."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.UpdatePassword(context.Background(), "any", tt.current, tt.next, tt.confirm)
			var inputErr *InputError
			require.True(t, errors.As(err, &inputErr))
			assert.Equal(t, tt.want, inputErr.Message)
		})
	}
	assert.Empty(t, srv.Calls())
}

func TestUpdatePassword_EndsSession(t *testing.T) {
	svc, srv, _ := newService(t)
	ctx := context.Background()

	res, err := svc.Login(ctx, "meera.iyer@"+domain, "secret1")
	require.NoError(t, err)

	require.NoError(t, svc.UpdatePassword(ctx, res.Session.ID, "secret1", "secret9", "secret9"))

	_, err = svc.Session(ctx, res.Session.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)

	calls := srv.CallsMatching(http.MethodPost, "/api/auth/update-password")
	require.Len(t, calls, 1)
	assert.Equal(t, "501", calls[0].Body["empid"])

	_, err = svc.Login(ctx, "meera.iyer@"+domain, "secret9")
	assert.NoError(t, err)
}

func TestUpdatePassword_WrongCurrentKeepsSession(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	res, err := svc.Login(ctx, "meera.iyer@"+domain, "secret1")
	require.NoError(t, err)

	err = svc.UpdatePassword(ctx, res.Session.ID, "wrong1", "secret9", "secret9")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, backend.StatusCode(err))

	_, err = svc.Session(ctx, res.Session.ID)
	assert.NoError(t, err)
}

func TestLogin_SessionStoreFailure(t *testing.T) {
	srv := mocks.NewBackendServer()
	t.Cleanup(srv.Close)
	srv.PutEmployee(map[string]any{"empid": "501", "name": "Meera Iyer"})
	srv.AddAccount("meera.iyer@"+domain, "secret1", "501")

	store := mocks.NewMockSessionStore()
	store.CreateErr = errors.New("redis down")
	client := backend.NewClient(&config.BackendConfig{BaseURL: srv.URL}, logger.Nop())
	svc := NewService(client, store, NewTokens("k", "staff-directory", time.Hour), domain, logger.Nop())

	_, err := svc.Login(context.Background(), "meera.iyer@"+domain, "secret1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")
	assert.Equal(t, 0, store.Len())
}

func TestLogout_UsesStore(t *testing.T) {
	store := mocks.NewMockSessionStore()
	svc := NewService(nil, store, NewTokens("k", "staff-directory", time.Hour), domain, logger.Nop())

	require.NoError(t, svc.Logout(context.Background(), "mock-7"))
	assert.Equal(t, []string{"mock-7"}, store.Deleted)
}
