package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/prostore-backend/internal/identity"
	"github.com/angelmondragon/prostore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/prostore-backend/pkg/errors"
	"github.com/angelmondragon/prostore-backend/pkg/pagination"
	"github.com/angelmondragon/prostore-backend/pkg/types"
)

// Service covers the profile operations of the signed-in user and the
// admin user directory.
type Service interface {
	GetProfile(ctx context.Context, id identity.Identity) (*UserDTO, error)
	UpdateProfile(ctx context.Context, id identity.Identity, input UpdateProfileInput) error
	UpdateAddress(ctx context.Context, id identity.Identity, address types.ShippingAddress) error
	UpdatePaymentMethod(ctx context.Context, id identity.Identity, input PaymentMethodInput) error
	AdminList(ctx context.Context, query string, page int) (pagination.Page[UserDTO], error)
	AdminGet(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	AdminUpdate(ctx context.Context, userID uuid.UUID, input AdminUpdateInput) error
	AdminDelete(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo           *Repository
	paymentMethods []enums.PaymentMethod
	pageSize       int
}

// NewService builds the users service. paymentMethods is the set a user may
// choose from.
func NewService(repo *Repository, paymentMethods []enums.PaymentMethod, pageSize int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if len(paymentMethods) == 0 {
		return nil, fmt.Errorf("at least one payment method required")
	}
	return &service{repo: repo, paymentMethods: paymentMethods, pageSize: pageSize}, nil
}

func (s *service) GetProfile(ctx context.Context, id identity.Identity) (*UserDTO, error) {
	userID, err := id.RequireUser()
	if err != nil {
		return nil, err
	}
	return s.AdminGet(ctx, userID)
}

func (s *service) UpdateProfile(ctx context.Context, id identity.Identity, input UpdateProfileInput) error {
	userID, err := id.RequireUser()
	if err != nil {
		return err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	return mapRepoError(s.repo.UpdateName(ctx, userID, name))
}

func (s *service) UpdateAddress(ctx context.Context, id identity.Identity, address types.ShippingAddress) error {
	userID, err := id.RequireUser()
	if err != nil {
		return err
	}
	if address.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping address is required")
	}
	return mapRepoError(s.repo.UpdateAddress(ctx, userID, address))
}

func (s *service) UpdatePaymentMethod(ctx context.Context, id identity.Identity, input PaymentMethodInput) error {
	userID, err := id.RequireUser()
	if err != nil {
		return err
	}
	method, err := enums.ParsePaymentMethod(input.Type)
	if err != nil || !s.allowed(method) {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method").
			WithDetails(map[string]any{"allowed": s.paymentMethods})
	}
	return mapRepoError(s.repo.UpdatePaymentMethod(ctx, userID, method))
}

func (s *service) allowed(method enums.PaymentMethod) bool {
	for _, candidate := range s.paymentMethods {
		if candidate == method {
			return true
		}
	}
	return false
}

func (s *service) AdminList(ctx context.Context, query string, page int) (pagination.Page[UserDTO], error) {
	params := pagination.Params{Page: page}.Normalize(s.pageSize)
	rows, total, err := s.repo.List(ctx, query, params)
	if err != nil {
		return pagination.Page[UserDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return pagination.New(out, total, params.Limit), nil
}

func (s *service) AdminGet(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return FromModel(user), nil
}

func (s *service) AdminUpdate(ctx context.Context, userID uuid.UUID, input AdminUpdateInput) error {
	role, err := enums.ParseRole(strings.TrimSpace(input.Role))
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	return mapRepoError(s.repo.UpdateNameAndRole(ctx, userID, name, role))
}

func (s *service) AdminDelete(ctx context.Context, userID uuid.UUID) error {
	return mapRepoError(s.repo.Delete(ctx, userID))
}

func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "user store")
	}
}
