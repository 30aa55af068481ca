package main

import (
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/prostore-backend/pkg/db/models"
	"github.com/angelmondragon/prostore-backend/pkg/enums"
)

type sampleUser struct {
	Name     string
	Email    string
	Password string
	Role     enums.Role
}

var sampleUsers = []sampleUser{
	{Name: "Admin", Email: "admin@example.com", Password: "123456", Role: enums.RoleAdmin},
	{Name: "Jane", Email: "user@example.com", Password: "123456", Role: enums.RoleUser},
}

func strPtr(v string) *string { return &v }

func sampleProducts() []models.Product {
	return []models.Product{
		{
			Name:        "Polo Sporting Stretch Shirt",
			Slug:        "polo-sporting-stretch-shirt",
			Category:    "Men's Dress Shirts",
			Images:      pq.StringArray{"/images/sample-products/p1-1.jpg", "/images/sample-products/p1-2.jpg"},
			Brand:       "Polo",
			Description: "Classic Polo style with modern comfort",
			Stock:       5,
			Price:       decimal.RequireFromString("59.99"),
			Rating:      decimal.RequireFromString("4.5"),
			NumReviews:  10,
			IsFeatured:  true,
			Banner:      strPtr("banner-1.jpg"),
		},
		{
			Name:        "Brooks Brothers Long Sleeved Shirt",
			Slug:        "brooks-brothers-long-sleeved-shirt",
			Category:    "Men's Dress Shirts",
			Images:      pq.StringArray{"/images/sample-products/p2-1.jpg", "/images/sample-products/p2-2.jpg"},
			Brand:       "Brooks Brothers",
			Description: "Timeless style and premium comfort",
			Stock:       10,
			Price:       decimal.RequireFromString("85.90"),
			Rating:      decimal.RequireFromString("4.2"),
			NumReviews:  8,
			IsFeatured:  true,
			Banner:      strPtr("banner-2.jpg"),
		},
		{
			Name:        "Tommy Hilfiger Classic Fit Dress Shirt",
			Slug:        "tommy-hilfiger-classic-fit-dress-shirt",
			Category:    "Men's Dress Shirts",
			Images:      pq.StringArray{"/images/sample-products/p3-1.jpg", "/images/sample-products/p3-2.jpg"},
			Brand:       "Tommy Hilfiger",
			Description: "A perfect blend of sophistication and comfort",
			Stock:       0,
			Price:       decimal.RequireFromString("99.95"),
			Rating:      decimal.RequireFromString("4.9"),
			NumReviews:  3,
		},
		{
			Name:        "Calvin Klein Slim Fit Stretch Shirt",
			Slug:        "calvin-klein-slim-fit-stretch-shirt",
			Category:    "Men's Dress Shirts",
			Images:      pq.StringArray{"/images/sample-products/p4-1.jpg", "/images/sample-products/p4-2.jpg"},
			Brand:       "Calvin Klein",
			Description: "Streamlined design with flexible stretch fabric",
			Stock:       10,
			Price:       decimal.RequireFromString("39.95"),
			Rating:      decimal.RequireFromString("3.6"),
			NumReviews:  5,
		},
		{
			Name:        "Polo Ralph Lauren Oxford Shirt",
			Slug:        "polo-ralph-lauren-oxford-shirt",
			Category:    "Men's Dress Shirts",
			Images:      pq.StringArray{"/images/sample-products/p5-1.jpg", "/images/sample-products/p5-2.jpg"},
			Brand:       "Polo",
			Description: "Iconic Polo design with refined oxford fabric",
			Stock:       6,
			Price:       decimal.RequireFromString("79.99"),
			Rating:      decimal.RequireFromString("4.7"),
			NumReviews:  18,
		},
		{
			Name:        "Polo Classic Pink Hoodie",
			Slug:        "polo-classic-pink-hoodie",
			Category:    "Men's Sweatshirts",
			Images:      pq.StringArray{"/images/sample-products/p6-1.jpg", "/images/sample-products/p6-2.jpg"},
			Brand:       "Polo",
			Description: "Soft, stylish, and perfect for laid-back days",
			Stock:       8,
			Price:       decimal.RequireFromString("99.99"),
			Rating:      decimal.RequireFromString("4.6"),
			NumReviews:  12,
		},
	}
}
