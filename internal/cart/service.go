package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/prostore-backend/internal/identity"
	"github.com/angelmondragon/prostore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/prostore-backend/pkg/errors"
	"github.com/angelmondragon/prostore-backend/pkg/logger"
	"github.com/angelmondragon/prostore-backend/pkg/metrics"
	"github.com/angelmondragon/prostore-backend/pkg/types"
)

// Service manages the per-identity cart aggregate.
type Service interface {
	GetCurrentCart(ctx context.Context, id identity.Identity) (*models.Cart, error)
	AddItem(ctx context.Context, id identity.Identity, input AddItemInput) (*MutationResult, error)
	RemoveItem(ctx context.Context, id identity.Identity, productID uuid.UUID) (*MutationResult, error)
	MigrateSessionCart(ctx context.Context, tx *gorm.DB, sessionCartID string, userID uuid.UUID) error
}

// ServiceParams wires the cart service collaborators.
type ServiceParams struct {
	Repo        CartRepository
	Products    productLookup
	TxRunner    txRunner
	Invalidator productInvalidator
	Metrics     *metrics.StoreMetrics
	Logger      *logger.Logger
}

type service struct {
	repo        CartRepository
	products    productLookup
	tx          txRunner
	invalidator productInvalidator
	metrics     *metrics.StoreMetrics
	logg        *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:        params.Repo,
		products:    params.Products,
		tx:          params.TxRunner,
		invalidator: params.Invalidator,
		metrics:     params.Metrics,
		logg:        params.Logger,
	}, nil
}

// GetCurrentCart returns the caller's cart or nil. It never creates one.
func (s *service) GetCurrentCart(ctx context.Context, id identity.Identity) (*models.Cart, error) {
	if err := id.RequireCartKey(); err != nil {
		return nil, err
	}
	cart, err := s.find(ctx, s.repo, id, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

// AddItem adds one unit of the product, creating the cart on first use.
func (s *service) AddItem(ctx context.Context, id identity.Identity, input AddItemInput) (*MutationResult, error) {
	if err := id.RequireCartKey(); err != nil {
		return nil, err
	}
	if err := validateItem(input); err != nil {
		return nil, err
	}

	var (
		result  MutationResult
		product *models.Product
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		product, err = s.loadProduct(tx, input.ProductID)
		if err != nil {
			return err
		}

		repo := s.repo.WithTx(tx)
		cart, err := s.find(ctx, repo, id, true)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}

		line := lineFor(product)

		if cart == nil {
			if product.Stock < 1 {
				return notEnoughStock()
			}
			cart = &models.Cart{
				UserID:        id.UserID,
				SessionCartID: sessionKey(id),
				Items:         types.CartItems{line},
			}
			applyPrices(cart)
			if err := repo.Create(ctx, cart); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
			}
			result = MutationResult{Message: fmt.Sprintf("%s added to cart", product.Name), Cart: cart}
			return nil
		}

		items := cart.Items.Clone()
		message := fmt.Sprintf("%s added to cart", product.Name)
		if idx := items.Find(input.ProductID); idx >= 0 {
			if product.Stock < items[idx].Qty+1 {
				return notEnoughStock()
			}
			items[idx].Qty++
			message = fmt.Sprintf("%s updated in cart", product.Name)
		} else {
			if product.Stock < 1 {
				return notEnoughStock()
			}
			items = append(items, line)
		}

		cart.Items = items
		applyPrices(cart)
		if err := repo.SaveItems(ctx, cart); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart")
		}
		result = MutationResult{Message: message, Cart: cart}
		return nil
	})
	if err != nil {
		s.metrics.IncCartMutation("add", metrics.OutcomeFailure)
		return nil, err
	}

	s.metrics.IncCartMutation("add", metrics.OutcomeSuccess)
	s.invalidate(ctx, product.Slug)
	return &result, nil
}

// RemoveItem takes one unit of the product out of the cart, dropping the
// line when it reaches zero.
func (s *service) RemoveItem(ctx context.Context, id identity.Identity, productID uuid.UUID) (*MutationResult, error) {
	if err := id.RequireCartKey(); err != nil {
		return nil, err
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	var (
		result  MutationResult
		product *models.Product
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		product, err = s.loadProduct(tx, productID)
		if err != nil {
			return err
		}

		repo := s.repo.WithTx(tx)
		cart, err := s.find(ctx, repo, id, true)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if cart == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Cart not found")
		}

		items := cart.Items.Clone()
		idx := items.Find(productID)
		if idx < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Item not found")
		}
		if items[idx].Qty <= 1 {
			items = append(items[:idx], items[idx+1:]...)
		} else {
			items[idx].Qty--
		}

		cart.Items = items
		applyPrices(cart)
		if err := repo.SaveItems(ctx, cart); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart")
		}
		result = MutationResult{Message: fmt.Sprintf("%s was removed from cart", product.Name), Cart: cart}
		return nil
	})
	if err != nil {
		s.metrics.IncCartMutation("remove", metrics.OutcomeFailure)
		return nil, err
	}

	s.metrics.IncCartMutation("remove", metrics.OutcomeSuccess)
	s.invalidate(ctx, product.Slug)
	return &result, nil
}

// MigrateSessionCart hands the anonymous cart over to userID at sign-in.
// Any cart the user already owned is discarded. A missing session cart is
// not an error. Carts already owned by a user are never picked up here.
func (s *service) MigrateSessionCart(ctx context.Context, tx *gorm.DB, sessionCartID string, userID uuid.UUID) error {
	sessionCartID = strings.TrimSpace(sessionCartID)
	if sessionCartID == "" || userID == uuid.Nil {
		return nil
	}
	repo := s.repo.WithTx(tx)
	cart, err := repo.FindBySession(ctx, sessionCartID, true)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session cart")
	}
	if cart == nil {
		return nil
	}
	if err := repo.DeleteByUserExcept(ctx, userID, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete previous user cart")
	}
	if err := repo.AssignUser(ctx, cart.ID, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign session cart")
	}
	return nil
}

func (s *service) find(ctx context.Context, repo CartRepository, id identity.Identity, lock bool) (*models.Cart, error) {
	if id.Authenticated() {
		return repo.FindByUser(ctx, *id.UserID, lock)
	}
	return repo.FindBySession(ctx, id.SessionCartID, lock)
}

func (s *service) loadProduct(tx *gorm.DB, productID uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByIDWithTx(tx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) invalidate(ctx context.Context, slug string) {
	if s.invalidator == nil || slug == "" {
		return
	}
	if err := s.invalidator.Invalidate(ctx, slug); err != nil && s.logg != nil {
		ctx = s.logg.WithField(ctx, "slug", slug)
		s.logg.Warn(ctx, "product cache invalidation failed: "+err.Error())
	}
}

func applyPrices(cart *models.Cart) {
	prices := CalcPrice(cart.Items)
	cart.ItemsPrice = prices.ItemsPrice
	cart.ShippingPrice = prices.ShippingPrice
	cart.TaxPrice = prices.TaxPrice
	cart.TotalPrice = prices.TotalPrice
}

func sessionKey(id identity.Identity) string {
	if id.SessionCartID != "" {
		return id.SessionCartID
	}
	return uuid.NewString()
}

// lineFor snapshots the product as a single-unit cart line. Price, name and
// image always come from the catalogue row, never from the request.
func lineFor(product *models.Product) types.CartItem {
	return types.CartItem{
		ProductID: product.ID,
		Name:      product.Name,
		Slug:      product.Slug,
		Image:     product.FirstImage(),
		Price:     product.Price,
		Qty:       1,
	}
}

func notEnoughStock() error {
	return pkgerrors.New(pkgerrors.CodeInsufficient, "Not enough stock")
}

func validateItem(item AddItemInput) error {
	switch {
	case item.ProductID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	case strings.TrimSpace(item.Name) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	case strings.TrimSpace(item.Slug) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	case strings.TrimSpace(item.Image) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "image is required")
	case !item.Price.IsPositive():
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	case item.Qty < 1:
		return pkgerrors.New(pkgerrors.CodeValidation, "qty must be at least 1")
	}
	return nil
}
