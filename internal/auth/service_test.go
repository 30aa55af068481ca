package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/angelmondragon/prostore-backend/internal/cart"
	"github.com/angelmondragon/prostore-backend/internal/identity"
	product "github.com/angelmondragon/prostore-backend/internal/products"
	"github.com/angelmondragon/prostore-backend/internal/testdb"
	"github.com/angelmondragon/prostore-backend/internal/users"
	pkgAuth "github.com/angelmondragon/prostore-backend/pkg/auth"
	"github.com/angelmondragon/prostore-backend/pkg/auth/session"
	"github.com/angelmondragon/prostore-backend/pkg/config"
	"github.com/angelmondragon/prostore-backend/pkg/db"
	"github.com/angelmondragon/prostore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/prostore-backend/pkg/errors"
	redisclient "github.com/angelmondragon/prostore-backend/pkg/redis"
	"github.com/angelmondragon/prostore-backend/pkg/security"
)

var (
	testJWT = config.JWTConfig{
		Secret:                 "secret",
		Issuer:                 "prostore",
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 60,
	}
	testPassword = config.PasswordConfig{
		ArgonMemoryKB:    1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
)

type authHarness struct {
	conn  *gorm.DB
	svc   Service
	users *users.Repository
	carts cart.Service
	redis *miniredis.Miniredis
}

func newAuthHarness(t *testing.T) authHarness {
	t.Helper()
	conn := testdb.Open(t)
	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })

	manager, err := session.NewManager(redisclient.NewFromClient(raw), testJWT)
	require.NoError(t, err)

	userRepo := users.NewRepository(conn)
	carts, err := cart.NewService(cart.ServiceParams{
		Repo:     cart.NewRepository(conn),
		Products: product.NewRepository(conn),
		TxRunner: db.Wrap(conn),
	})
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		UserRepo:       userRepo,
		SessionManager: manager,
		Carts:          carts,
		TxRunner:       db.Wrap(conn),
		JWTConfig:      testJWT,
		PasswordConfig: testPassword,
	})
	require.NoError(t, err)
	return authHarness{conn: conn, svc: svc, users: userRepo, carts: carts, redis: mr}
}

func TestRegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	h := newAuthHarness(t)

	resp, err := h.svc.Register(ctx, RegisterRequest{
		Name: "Jane", Email: " Jane@Example.com ", Password: "secret1", ConfirmPassword: "secret1",
	}, "")
	require.NoError(t, err)
	require.Equal(t, "jane@example.com", resp.User.Email)
	require.Equal(t, enums.RoleUser, resp.User.Role)

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, claims.UserID)
	require.Equal(t, enums.RoleUser, claims.Role)

	_, err = h.svc.Register(ctx, RegisterRequest{
		Name: "Jane", Email: "jane@example.com", Password: "secret1", ConfirmPassword: "secret1",
	}, "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = h.svc.Login(ctx, LoginRequest{Email: "jane@example.com", Password: "wrong-pass"}, "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	_, err = h.svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "secret1"}, "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	login, err := h.svc.Login(ctx, LoginRequest{Email: "JANE@example.com", Password: "secret1"}, "")
	require.NoError(t, err)
	require.NotNil(t, login.User.LastLoginAt)
}

func TestRegisterRejectsMismatchedPasswords(t *testing.T) {
	h := newAuthHarness(t)
	_, err := h.svc.Register(context.Background(), RegisterRequest{
		Name: "Jane", Email: "jane@example.com", Password: "secret1", ConfirmPassword: "secret2",
	}, "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestLoginUpgradesLegacyHashAndRenamesDefaultName(t *testing.T) {
	ctx := context.Background()
	h := newAuthHarness(t)

	legacy, err := bcrypt.GenerateFromPassword([]byte("123456"), bcrypt.MinCost)
	require.NoError(t, err)
	user, err := h.users.Create(ctx, users.CreateUserDTO{Email: "legacy@example.com", PasswordHash: string(legacy)})
	require.NoError(t, err)
	require.Equal(t, "NO_NAME", user.Name)

	resp, err := h.svc.Login(ctx, LoginRequest{Email: "legacy@example.com", Password: "123456"}, "")
	require.NoError(t, err)
	require.Equal(t, "legacy", resp.User.Name)

	stored, err := h.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(*stored.PasswordHash, "$argon2id$"))
	require.Equal(t, "legacy", stored.Name)

	ok, err := security.VerifyPassword("123456", *stored.PasswordHash)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestLoginMigratesSessionCart(t *testing.T) {
	ctx := context.Background()
	h := newAuthHarness(t)
	p := testdb.MustCreateProduct(t, h.conn, "12.00", 4)

	_, err := h.svc.Register(ctx, RegisterRequest{
		Name: "Sam", Email: "sam@example.com", Password: "secret1", ConfirmPassword: "secret1",
	}, "")
	require.NoError(t, err)

	sessionCartID := uuid.NewString()
	_, err = h.carts.AddItem(ctx, identity.Anonymous(sessionCartID), cart.AddItemInput{
		ProductID: p.ID, Name: p.Name, Slug: p.Slug, Image: p.FirstImage(), Price: p.Price, Qty: 1,
	})
	require.NoError(t, err)

	resp, err := h.svc.Login(ctx, LoginRequest{Email: "sam@example.com", Password: "secret1"}, sessionCartID)
	require.NoError(t, err)

	owned, err := h.carts.GetCurrentCart(ctx, identity.Identity{UserID: &resp.User.ID, Role: enums.RoleUser})
	require.NoError(t, err)
	require.NotNil(t, owned)
	require.Len(t, owned.Items, 1)
	require.Equal(t, p.ID, owned.Items[0].ProductID)
}

func TestRefreshRotatesAndLogoutRevokes(t *testing.T) {
	ctx := context.Background()
	h := newAuthHarness(t)

	resp, err := h.svc.Register(ctx, RegisterRequest{
		Name: "Ray", Email: "ray@example.com", Password: "secret1", ConfirmPassword: "secret1",
	}, "")
	require.NoError(t, err)

	h.redis.FastForward(20 * time.Minute)
	refreshed, err := h.svc.Refresh(ctx, resp.AccessToken, resp.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, resp.RefreshToken, refreshed.RefreshToken)

	_, err = h.svc.Refresh(ctx, resp.AccessToken, resp.RefreshToken)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	claims, err := pkgAuth.ParseAccessToken(testJWT, refreshed.AccessToken)
	require.NoError(t, err)
	require.NoError(t, h.svc.Logout(ctx, claims.ID))

	_, err = h.svc.Refresh(ctx, refreshed.AccessToken, refreshed.RefreshToken)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = h.svc.Refresh(ctx, "not-a-jwt", refreshed.RefreshToken)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}
