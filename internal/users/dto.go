package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/prostore-backend/pkg/db/models"
	"github.com/angelmondragon/prostore-backend/pkg/enums"
	"github.com/angelmondragon/prostore-backend/pkg/types"
)

// UserDTO is the transport shape that omits credentials.
type UserDTO struct {
	ID            uuid.UUID              `json:"id"`
	Name          string                 `json:"name"`
	Email         string                 `json:"email"`
	Role          enums.Role             `json:"role"`
	Image         *string                `json:"image,omitempty"`
	Address       *types.ShippingAddress `json:"address,omitempty"`
	PaymentMethod *enums.PaymentMethod   `json:"paymentMethod,omitempty"`
	LastLoginAt   *time.Time             `json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Name         string
	Email        string
	PasswordHash string
	Role         enums.Role
}

// ToModel converts the DTO into a user row.
func (d CreateUserDTO) ToModel() *models.User {
	hash := d.PasswordHash
	user := &models.User{
		Name:  d.Name,
		Email: d.Email,
		Role:  d.Role,
	}
	if hash != "" {
		user.PasswordHash = &hash
	}
	return user
}

// UpdateProfileInput changes the caller's display name.
type UpdateProfileInput struct {
	Name string `json:"name" validate:"required,min=3"`
}

// PaymentMethodInput saves the preferred payment method.
type PaymentMethodInput struct {
	Type string `json:"type" validate:"required"`
}

// AdminUpdateInput is the admin edit payload.
type AdminUpdateInput struct {
	Name string `json:"name" validate:"required,min=3"`
	Role string `json:"role" validate:"required,oneof=admin user"`
}

// FromModel maps a user row, dropping the password hash.
func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          u.Role,
		Image:         u.Image,
		Address:       u.Address,
		PaymentMethod: u.PaymentMethod,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
	}
}
