package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/prostore-backend/internal/identity"
	"github.com/angelmondragon/prostore-backend/internal/testdb"
	"github.com/angelmondragon/prostore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/prostore-backend/pkg/errors"
	"github.com/angelmondragon/prostore-backend/pkg/types"
)

func newTestService(t *testing.T) (Service, *Repository) {
	t.Helper()
	repo := NewRepository(testdb.Open(t))
	svc, err := NewService(repo, []enums.PaymentMethod{enums.PaymentMethodPayPal, enums.PaymentMethodCashOnDelivery}, 2)
	require.NoError(t, err)
	return svc, repo
}

func TestProfileUpdates(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	user, err := repo.Create(ctx, CreateUserDTO{Email: "jane@example.com", PasswordHash: "hash"})
	require.NoError(t, err)
	require.Equal(t, "NO_NAME", user.Name)
	require.Equal(t, enums.RoleUser, user.Role)

	id := identity.Identity{UserID: &user.ID, Role: user.Role}
	require.NoError(t, svc.UpdateProfile(ctx, id, UpdateProfileInput{Name: "Jane"}))

	address := types.ShippingAddress{FullName: "Jane Doe", StreetAddress: "1 Main", City: "Town", PostalCode: "12345", Country: "USA"}
	require.NoError(t, svc.UpdateAddress(ctx, id, address))

	err = svc.UpdatePaymentMethod(ctx, id, PaymentMethodInput{Type: "Stripe"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.NoError(t, svc.UpdatePaymentMethod(ctx, id, PaymentMethodInput{Type: "paypal"}))

	profile, err := svc.GetProfile(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Jane", profile.Name)
	require.Equal(t, "Town", profile.Address.City)
	require.Equal(t, enums.PaymentMethodPayPal, *profile.PaymentMethod)

	_, err = svc.GetProfile(ctx, identity.Anonymous("s"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestAdminDirectory(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	for _, name := range []string{"Alice", "Alfred", "Bob"} {
		_, err := repo.Create(ctx, CreateUserDTO{Name: name, Email: name + "@example.com"})
		require.NoError(t, err)
	}

	page, err := svc.AdminList(ctx, "al", 1)
	require.NoError(t, err)
	require.Equal(t, 1, page.TotalPages)
	require.Len(t, page.Data, 2)

	page, err = svc.AdminList(ctx, "", 1)
	require.NoError(t, err)
	require.Equal(t, 2, page.TotalPages)

	bob, err := repo.FindByEmail(ctx, "Bob@example.com")
	require.NoError(t, err)
	require.NoError(t, svc.AdminUpdate(ctx, bob.ID, AdminUpdateInput{Name: "Robert", Role: "admin"}))
	got, err := svc.AdminGet(ctx, bob.ID)
	require.NoError(t, err)
	require.Equal(t, enums.RoleAdmin, got.Role)
	require.Equal(t, "Robert", got.Name)

	err = svc.AdminUpdate(ctx, bob.ID, AdminUpdateInput{Name: "Robert", Role: "owner"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	require.NoError(t, svc.AdminDelete(ctx, bob.ID))
	require.True(t, pkgerrors.IsCode(svc.AdminDelete(ctx, bob.ID), pkgerrors.CodeNotFound))
	_, err = svc.AdminGet(ctx, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
