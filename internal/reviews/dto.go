package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/prostore-backend/pkg/db/models"
)

// ReviewInput is the create-or-update payload.
type ReviewInput struct {
	ProductID   uuid.UUID `json:"productId" validate:"required"`
	Rating      int       `json:"rating" validate:"required,min=1,max=5"`
	Title       string    `json:"title" validate:"required,min=3"`
	Description string    `json:"description" validate:"required,min=3"`
}

// ReviewDTO is a review with its author's display name.
type ReviewDTO struct {
	ID                 uuid.UUID `json:"id"`
	ProductID          uuid.UUID `json:"productId"`
	UserID             uuid.UUID `json:"userId"`
	UserName           string    `json:"userName"`
	Rating             int       `json:"rating"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	IsVerifiedPurchase bool      `json:"isVerifiedPurchase"`
	CreatedAt          time.Time `json:"createdAt"`
}

func toDTO(r models.Review) ReviewDTO {
	dto := ReviewDTO{
		ID:                 r.ID,
		ProductID:          r.ProductID,
		UserID:             r.UserID,
		Rating:             r.Rating,
		Title:              r.Title,
		Description:        r.Description,
		IsVerifiedPurchase: r.IsVerifiedPurchase,
		CreatedAt:          r.CreatedAt,
	}
	if r.User != nil {
		dto.UserName = r.User.Name
	}
	return dto
}
