package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is unique per (product, user).
type Review struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID             uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	ProductID          uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Rating             int       `gorm:"column:rating;not null"`
	Title              string    `gorm:"column:title;not null"`
	Description        string    `gorm:"column:description;not null"`
	IsVerifiedPurchase bool      `gorm:"column:is_verified_purchase;not null;default:true"`
	User               *User     `gorm:"foreignKey:UserID"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Review) TableName() string { return "reviews" }

func (r *Review) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
