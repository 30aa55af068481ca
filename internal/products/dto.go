package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/prostore-backend/pkg/db/models"
)

// ProductDTO is the API shape of a product. Money and rating are fixed
// two-decimal strings.
type ProductDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Category    string    `json:"category"`
	Images      []string  `json:"images"`
	Brand       string    `json:"brand"`
	Description string    `json:"description"`
	Stock       int       `json:"stock"`
	Price       string    `json:"price"`
	Rating      string    `json:"rating"`
	NumReviews  int       `json:"numReviews"`
	IsFeatured  bool      `json:"isFeatured"`
	Banner      *string   `json:"banner,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ProductInput is the admin create/update payload.
type ProductInput struct {
	Name        string          `json:"name" validate:"required,min=3"`
	Slug        string          `json:"slug" validate:"required,min=3"`
	Category    string          `json:"category" validate:"required,min=3"`
	Brand       string          `json:"brand" validate:"required,min=3"`
	Description string          `json:"description" validate:"required,min=3"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Images      []string        `json:"images" validate:"required,min=1,dive,required"`
	IsFeatured  bool            `json:"isFeatured"`
	Banner      *string         `json:"banner"`
	Price       decimal.Decimal `json:"price"`
}

// SearchInput carries the raw catalog search parameters. The literal
// value "all" disables a filter.
type SearchInput struct {
	Query    string
	Category string
	Price    string
	Rating   string
	Sort     string
	Page     int
}

// ToDTO maps a product row.
func ToDTO(p models.Product) ProductDTO {
	images := []string(p.Images)
	if images == nil {
		images = []string{}
	}
	return ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Category:    p.Category,
		Images:      images,
		Brand:       p.Brand,
		Description: p.Description,
		Stock:       p.Stock,
		Price:       p.Price.StringFixed(2),
		Rating:      p.Rating.StringFixed(2),
		NumReviews:  p.NumReviews,
		IsFeatured:  p.IsFeatured,
		Banner:      p.Banner,
		CreatedAt:   p.CreatedAt,
	}
}

// ToDTOs maps a slice of product rows.
func ToDTOs(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, ToDTO(row))
	}
	return out
}
