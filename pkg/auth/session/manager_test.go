package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/prostore-backend/pkg/config"
	redisclient "github.com/angelmondragon/prostore-backend/pkg/redis"
)

func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })

	manager, err := NewManager(redisclient.NewFromClient(raw), config.JWTConfig{
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 60,
	})
	require.NoError(t, err)
	return manager, mr
}

func TestGenerateStoresDigestOnly(t *testing.T) {
	ctx := context.Background()
	manager, mr := newTestManager(t)

	userID := uuid.New()
	token, err := manager.Generate(ctx, "access-123", userID)
	require.NoError(t, err)

	key := "ps:session:access:access-123"
	stored, err := mr.Get(key)
	require.NoError(t, err)
	require.NotContains(t, stored, token)
	require.Contains(t, stored, digest(token))
	require.Contains(t, stored, userID.String())
	require.Equal(t, time.Hour, mr.TTL(key))
}

func TestRotateIssuesNewPair(t *testing.T) {
	ctx := context.Background()
	manager, mr := newTestManager(t)

	userID := uuid.New()
	token, err := manager.Generate(ctx, "access-1", userID)
	require.NoError(t, err)

	next, err := manager.Rotate(ctx, "access-1", token)
	require.NoError(t, err)
	require.Equal(t, userID, next.UserID)
	require.NotEqual(t, token, next.RefreshToken)
	require.False(t, mr.Exists("ps:session:access:access-1"))

	ok, err := manager.HasSession(ctx, next.AccessID)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = manager.Rotate(ctx, "access-1", token)
	require.True(t, errors.Is(err, ErrInvalidRefreshToken))
}

func TestRotateWithWrongTokenBurnsSession(t *testing.T) {
	ctx := context.Background()
	manager, _ := newTestManager(t)

	token, err := manager.Generate(ctx, "access-2", uuid.New())
	require.NoError(t, err)

	_, err = manager.Rotate(ctx, "access-2", "wrong")
	require.True(t, errors.Is(err, ErrInvalidRefreshToken))

	_, err = manager.Rotate(ctx, "access-2", token)
	require.True(t, errors.Is(err, ErrInvalidRefreshToken))
}

func TestRevokeEndsSession(t *testing.T) {
	ctx := context.Background()
	manager, _ := newTestManager(t)

	_, err := manager.Generate(ctx, "access-9", uuid.New())
	require.NoError(t, err)
	require.NoError(t, manager.Revoke(ctx, "access-9"))
	require.NoError(t, manager.Revoke(ctx, "access-9"))

	ok, err := manager.HasSession(ctx, "access-9")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSessionExpiresWithTTL(t *testing.T) {
	ctx := context.Background()
	manager, mr := newTestManager(t)

	_, err := manager.Generate(ctx, "access-7", uuid.New())
	require.NoError(t, err)
	mr.FastForward(61 * time.Minute)

	ok, err := manager.HasSession(ctx, "access-7")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNewManagerValidatesTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer raw.Close()

	_, err := NewManager(redisclient.NewFromClient(raw), config.JWTConfig{ExpirationMinutes: 60, RefreshTokenTTLMinutes: 30})
	require.Error(t, err)

	_, err = NewManager(nil, config.JWTConfig{ExpirationMinutes: 1, RefreshTokenTTLMinutes: 30})
	require.Error(t, err)

	manager, err := NewManager(redisclient.NewFromClient(raw), config.JWTConfig{ExpirationMinutes: 1, RefreshTokenTTLMinutes: 30})
	require.NoError(t, err)
	_, err = manager.Generate(context.Background(), "access", uuid.Nil)
	require.Error(t, err)
}
