package testdb

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/prostore-backend/pkg/db/models"
	"github.com/angelmondragon/prostore-backend/pkg/enums"
)

// MustCreateUser inserts a user with the given role.
func MustCreateUser(t *testing.T, conn *gorm.DB, role enums.Role) *models.User {
	t.Helper()
	user := &models.User{
		Name:  "Test User",
		Email: fmt.Sprintf("user_%s@example.com", uuid.NewString()[:8]),
		Role:  role,
	}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// MustCreateProduct inserts a product priced at price with the given stock.
func MustCreateProduct(t *testing.T, conn *gorm.DB, price string, stock int) *models.Product {
	t.Helper()
	suffix := uuid.NewString()[:8]
	product := &models.Product{
		Name:        "Polo " + suffix,
		Slug:        "polo-" + suffix,
		Category:    "Men's Dress Shirts",
		Images:      pq.StringArray{"/images/sample-products/p1-1.jpg"},
		Brand:       "Polo",
		Description: "Classic polo",
		Stock:       stock,
		Price:       decimal.RequireFromString(price),
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}
