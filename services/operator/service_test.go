package operator

import (
	"context"
	"fmt"
	"testing"

	"hotspot-voucherd/pkg/config"
	"hotspot-voucherd/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// fakeLimiter counts failures in memory and locks after maxFails, mirroring
// the redis limiter's behavior without a redis server.
type fakeLimiter struct {
	maxFails int
	fails    map[string]int
	locked   map[string]bool
}

func newFakeLimiter(maxFails int) *fakeLimiter {
	return &fakeLimiter{maxFails: maxFails, fails: map[string]int{}, locked: map[string]bool{}}
}

func (l *fakeLimiter) Allowed(_ context.Context, ip string) (bool, error) {
	return !l.locked[ip], nil
}

func (l *fakeLimiter) RecordFail(_ context.Context, ip string) error {
	l.fails[ip]++
	if l.fails[ip] >= l.maxFails {
		l.locked[ip] = true
	}
	return nil
}

func (l *fakeLimiter) RecordSuccess(_ context.Context, ip string) error {
	delete(l.fails, ip)
	delete(l.locked, ip)
	return nil
}

type fakeTokenStore struct {
	next   int
	tokens map[string]string
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: map[string]string{}}
}

func (s *fakeTokenStore) Create(_ context.Context, operatorID string) (string, error) {
	s.next++
	token := fmt.Sprintf("token-%d", s.next)
	s.tokens[token] = operatorID
	return token, nil
}

func (s *fakeTokenStore) Resolve(_ context.Context, token string) (string, error) {
	id, ok := s.tokens[token]
	if !ok {
		return "", ErrTokenNotFound
	}
	return id, nil
}

func (s *fakeTokenStore) Revoke(_ context.Context, token string) error {
	delete(s.tokens, token)
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeLimiter, *fakeTokenStore) {
	t.Helper()
	db := testutil.NewTestDB(t, &Operator{})

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Login.MaxFails = 3

	limiter := newFakeLimiter(cfg.Login.MaxFails)
	tokens := newFakeTokenStore()
	svc := NewService(ServiceParams{
		DB:      db,
		Node:    node,
		Config:  cfg,
		Limiter: limiter,
		Tokens:  tokens,
	})
	return svc, limiter, tokens
}

func TestLoginAndAuthenticate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	op, err := svc.Create(ctx, "alice", "hunter22", RoleOperator)
	require.NoError(t, err)
	require.NotEqual(t, "hunter22", op.PasswordHash, "password must be hashed")

	token, err := svc.Login(ctx, "10.0.0.1", "alice", "hunter22")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	require.Equal(t, op.ID, got.ID)

	require.NoError(t, svc.Logout(ctx, token))
	_, err = svc.Authenticate(ctx, token)
	require.Error(t, err)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, limiter, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", "hunter22", RoleOperator)
	require.NoError(t, err)

	_, err = svc.Login(ctx, "10.0.0.1", "alice", "wrong")
	require.Error(t, err)
	require.Equal(t, 1, limiter.fails["10.0.0.1"])
}

func TestLoginThrottleLocksOut(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", "hunter22", RoleOperator)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = svc.Login(ctx, "10.0.0.9", "alice", "wrong")
		require.Error(t, err)
	}

	// Even the right password is rejected while the address is locked.
	_, err = svc.Login(ctx, "10.0.0.9", "alice", "hunter22")
	require.Error(t, err)

	// Another address is unaffected.
	_, err = svc.Login(ctx, "10.0.0.10", "alice", "hunter22")
	require.NoError(t, err)
}

func TestLoginUnknownUserCountsAsFail(t *testing.T) {
	svc, limiter, _ := newTestService(t)

	_, err := svc.Login(context.Background(), "10.0.0.1", "ghost", "pw")
	require.Error(t, err)
	require.Equal(t, 1, limiter.fails["10.0.0.1"])
}

func TestAuthenticateDisabledAccount(t *testing.T) {
	svc, _, tokens := newTestService(t)
	ctx := context.Background()

	op, err := svc.Create(ctx, "alice", "hunter22", RoleOperator)
	require.NoError(t, err)

	token, err := tokens.Create(ctx, op.ID)
	require.NoError(t, err)

	require.NoError(t, svc.db.Model(&Operator{}).Where("id = ?", op.ID).Update("enabled", false).Error)

	_, err = svc.Authenticate(ctx, token)
	require.Error(t, err)
}

func TestCreateDuplicateUsername(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", "pw1", RoleOperator)
	require.NoError(t, err)

	_, err = svc.Create(ctx, "alice", "pw2", RoleOperator)
	require.Error(t, err)
}

func TestDeleteSparesSuperAccounts(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	super, err := svc.Create(ctx, "root", "pw", RoleSuper)
	require.NoError(t, err)
	op, err := svc.Create(ctx, "alice", "pw", RoleOperator)
	require.NoError(t, err)

	require.Error(t, svc.Delete(ctx, super.ID))
	require.NoError(t, svc.Delete(ctx, op.ID))
}

func TestBootstrapCreatesSuperOnce(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.cfg.Bootstrap.AdminUser = "admin"
	svc.cfg.Bootstrap.AdminPass = "initial-pw"

	require.NoError(t, Bootstrap(svc, svc.cfg))

	var count int64
	require.NoError(t, svc.db.Model(&Operator{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	// A second run is a no-op.
	require.NoError(t, Bootstrap(svc, svc.cfg))
	require.NoError(t, svc.db.Model(&Operator{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	var op Operator
	require.NoError(t, svc.db.Where("username = ?", "admin").First(&op).Error)
	require.True(t, op.IsSuper())
}
