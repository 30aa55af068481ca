package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/prostore-backend/pkg/enums"
	"github.com/angelmondragon/prostore-backend/pkg/types"
)

// DefaultUserName is assigned at registration when no name is supplied.
const DefaultUserName = "NO_NAME"

// User is a storefront account.
type User struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string                 `gorm:"column:name;not null;default:NO_NAME"`
	Email         string                 `gorm:"column:email;not null;uniqueIndex"`
	EmailVerified *time.Time             `gorm:"column:email_verified"`
	Image         *string                `gorm:"column:image"`
	PasswordHash  *string                `gorm:"column:password"`
	Role          enums.Role             `gorm:"column:role;not null;default:user"`
	Address       *types.ShippingAddress `gorm:"column:address;type:jsonb"`
	PaymentMethod *enums.PaymentMethod   `gorm:"column:payment_method"`
	LastLoginAt   *time.Time             `gorm:"column:last_login_at"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	if u.Name == "" {
		u.Name = DefaultUserName
	}
	if u.Role == "" {
		u.Role = enums.RoleUser
	}
	return nil
}
