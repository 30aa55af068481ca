package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/prostore-backend/internal/identity"
	"github.com/angelmondragon/prostore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/prostore-backend/pkg/errors"
	"github.com/angelmondragon/prostore-backend/pkg/logger"
)

const (
	msgCreated = "Review created successfully"
	msgUpdated = "Review updated successfully"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productStore interface {
	LockByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Product, error)
	UpdateRatingWithTx(tx *gorm.DB, id uuid.UUID, rating decimal.Decimal, numReviews int) error
}

type productInvalidator interface {
	Invalidate(ctx context.Context, slug string) error
}

// Service manages the review aggregate and keeps the product rating in
// step with it.
type Service interface {
	CreateOrUpdate(ctx context.Context, id identity.Identity, input ReviewInput) (string, *ReviewDTO, error)
	List(ctx context.Context, productID uuid.UUID) ([]ReviewDTO, error)
	GetOwn(ctx context.Context, id identity.Identity, productID uuid.UUID) (*ReviewDTO, error)
}

// ServiceParams wires the review service.
type ServiceParams struct {
	Repo        *Repository
	Products    productStore
	TxRunner    txRunner
	Invalidator productInvalidator
	Logger      *logger.Logger
}

type service struct {
	repo        *Repository
	products    productStore
	tx          txRunner
	invalidator productInvalidator
	logg        *logger.Logger
}

// NewService builds the review service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("review repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product store required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:        params.Repo,
		products:    params.Products,
		tx:          params.TxRunner,
		invalidator: params.Invalidator,
		logg:        params.Logger,
	}, nil
}

// CreateOrUpdate upserts the caller's review and recomputes the product
// rating under the product row lock, so concurrent reviewers serialize.
func (s *service) CreateOrUpdate(ctx context.Context, id identity.Identity, input ReviewInput) (string, *ReviewDTO, error) {
	userID, err := id.RequireUser()
	if err != nil {
		return "", nil, err
	}
	if err := validateInput(input); err != nil {
		return "", nil, err
	}

	var (
		message string
		saved   *models.Review
		slug    string
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		product, err := s.products.LockByIDWithTx(tx, input.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock product")
		}
		slug = product.Slug

		repo := s.repo.WithTx(tx)
		existing, err := repo.FindByProductAndUser(ctx, input.ProductID, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
		}

		if existing != nil {
			existing.Rating = input.Rating
			existing.Title = strings.TrimSpace(input.Title)
			existing.Description = strings.TrimSpace(input.Description)
			if err := repo.UpdateContent(ctx, existing); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update review")
			}
			saved = existing
			message = msgUpdated
		} else {
			review := &models.Review{
				UserID:             userID,
				ProductID:          input.ProductID,
				Rating:             input.Rating,
				Title:              strings.TrimSpace(input.Title),
				Description:        strings.TrimSpace(input.Description),
				IsVerifiedPurchase: true,
			}
			if err := repo.Create(ctx, review); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
			}
			saved = review
			message = msgCreated
		}

		agg, err := repo.AggregateForProduct(ctx, input.ProductID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate reviews")
		}
		rating := decimal.Zero
		if agg.Count > 0 {
			rating = agg.Average.Round(2)
		}
		if err := s.products.UpdateRatingWithTx(tx, input.ProductID, rating, int(agg.Count)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product rating")
		}
		return nil
	})
	if err != nil {
		return "", nil, err
	}

	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, slug); err != nil && s.logg != nil {
			s.logg.Warn(ctx, "product cache invalidation failed: "+err.Error())
		}
	}

	dto := toDTO(*saved)
	dto.UserName = id.Name
	return message, &dto, nil
}

// List returns every review of a product, newest first.
func (s *service) List(ctx context.Context, productID uuid.UUID) ([]ReviewDTO, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	rows, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	out := make([]ReviewDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row))
	}
	return out, nil
}

// GetOwn returns the caller's review of the product or nil.
func (s *service) GetOwn(ctx context.Context, id identity.Identity, productID uuid.UUID) (*ReviewDTO, error) {
	userID, err := id.RequireUser()
	if err != nil {
		return nil, err
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	row, err := s.repo.FindByProductAndUser(ctx, productID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	}
	if row == nil {
		return nil, nil
	}
	dto := toDTO(*row)
	return &dto, nil
}

func validateInput(input ReviewInput) error {
	switch {
	case input.ProductID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	case input.Rating < 1 || input.Rating > 5:
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	case strings.TrimSpace(input.Title) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	case strings.TrimSpace(input.Description) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	return nil
}
