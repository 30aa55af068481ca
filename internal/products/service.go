package product

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/prostore-backend/pkg/config"
	"github.com/angelmondragon/prostore-backend/pkg/db"
	"github.com/angelmondragon/prostore-backend/pkg/db/models"
	"github.com/angelmondragon/prostore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/prostore-backend/pkg/errors"
	"github.com/angelmondragon/prostore-backend/pkg/pagination"
)

const filterAll = "all"

// Service exposes catalog reads and admin product management.
type Service interface {
	Latest(ctx context.Context) ([]ProductDTO, error)
	Featured(ctx context.Context) ([]ProductDTO, error)
	GetBySlug(ctx context.Context, slug string) (*ProductDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Search(ctx context.Context, input SearchInput) (pagination.Page[ProductDTO], error)
	Categories(ctx context.Context) ([]CategoryCount, error)
	AdminList(ctx context.Context, query string, page int) (pagination.Page[ProductDTO], error)
	Create(ctx context.Context, input ProductInput) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input ProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Export(ctx context.Context, w io.Writer) error
}

// ServiceParams wires the product service.
type ServiceParams struct {
	Repo  *Repository
	Cache *DetailCache
	Store config.StoreConfig
}

type service struct {
	repo  *Repository
	cache *DetailCache
	store config.StoreConfig
}

// NewService builds the catalog service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: params.Repo, cache: params.Cache, store: params.Store}, nil
}

func (s *service) pageSize() int {
	if s.store.PageSize > 0 {
		return s.store.PageSize
	}
	return pagination.DefaultLimit
}

func (s *service) latestLimit() int {
	if s.store.LatestProductsLimit > 0 {
		return s.store.LatestProductsLimit
	}
	return 4
}

func (s *service) Latest(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.repo.Latest(ctx, s.latestLimit())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list latest products")
	}
	return ToDTOs(rows), nil
}

func (s *service) Featured(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.repo.Featured(ctx, s.latestLimit())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list featured products")
	}
	return ToDTOs(rows), nil
}

// GetBySlug is served through the detail cache.
func (s *service) GetBySlug(ctx context.Context, slug string) (*ProductDTO, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	return s.cache.Get(ctx, slug, func(ctx context.Context) (*ProductDTO, error) {
		row, err := s.repo.FindBySlug(ctx, slug)
		if err != nil {
			return nil, mapFindError(err)
		}
		dto := ToDTO(*row)
		return &dto, nil
	})
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapFindError(err)
	}
	dto := ToDTO(*row)
	return &dto, nil
}

func (s *service) Search(ctx context.Context, input SearchInput) (pagination.Page[ProductDTO], error) {
	filter, err := parseSearch(input)
	if err != nil {
		return pagination.Page[ProductDTO]{}, err
	}
	page := pagination.Params{Page: input.Page}.Normalize(s.pageSize())
	rows, total, err := s.repo.Search(ctx, filter, page)
	if err != nil {
		return pagination.Page[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search products")
	}
	return pagination.New(ToDTOs(rows), total, page.Limit), nil
}

func (s *service) Categories(ctx context.Context) ([]CategoryCount, error) {
	rows, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	if rows == nil {
		rows = []CategoryCount{}
	}
	return rows, nil
}

func (s *service) AdminList(ctx context.Context, query string, page int) (pagination.Page[ProductDTO], error) {
	params := pagination.Params{Page: page}.Normalize(s.pageSize())
	rows, total, err := s.repo.Search(ctx, SearchFilter{Query: query}, params)
	if err != nil {
		return pagination.Page[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return pagination.New(ToDTOs(rows), total, params.Limit), nil
}

func (s *service) Create(ctx context.Context, input ProductInput) (*ProductDTO, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	row := applyInput(&models.Product{}, input)
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, mapWriteError(err)
	}
	dto := ToDTO(*row)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input ProductInput) (*ProductDTO, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapFindError(err)
	}
	oldSlug := existing.Slug
	row := applyInput(existing, input)
	if err := s.repo.UpdateListing(ctx, row); err != nil {
		return nil, mapWriteError(err)
	}
	_ = s.cache.Invalidate(ctx, oldSlug)
	if row.Slug != oldSlug {
		_ = s.cache.Invalidate(ctx, row.Slug)
	}
	dto := ToDTO(*row)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return mapFindError(err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapFindError(err)
	}
	_ = s.cache.Invalidate(ctx, existing.Slug)
	return nil
}

func applyInput(row *models.Product, input ProductInput) *models.Product {
	row.Name = strings.TrimSpace(input.Name)
	row.Slug = strings.TrimSpace(input.Slug)
	row.Category = strings.TrimSpace(input.Category)
	row.Brand = strings.TrimSpace(input.Brand)
	row.Description = strings.TrimSpace(input.Description)
	row.Stock = input.Stock
	row.Images = pq.StringArray(input.Images)
	row.IsFeatured = input.IsFeatured
	row.Banner = input.Banner
	row.Price = input.Price.Round(2)
	return row
}

func validateInput(input ProductInput) error {
	if input.Price.IsNegative() || input.Price.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.Stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	if len(input.Images) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product must have at least one image")
	}
	return nil
}

// parseSearch turns the raw query parameters into a filter. Price takes the
// form "min-max" and rating a minimum star value.
func parseSearch(input SearchInput) (SearchFilter, error) {
	filter := SearchFilter{Sort: enums.ParseProductSort(input.Sort)}
	if q := strings.TrimSpace(input.Query); q != "" && q != filterAll {
		filter.Query = q
	}
	if c := strings.TrimSpace(input.Category); c != "" && c != filterAll {
		filter.Category = c
	}
	if p := strings.TrimSpace(input.Price); p != "" && p != filterAll {
		lo, hi, ok := strings.Cut(p, "-")
		if !ok {
			return SearchFilter{}, pkgerrors.New(pkgerrors.CodeValidation, "price must be min-max")
		}
		minPrice, err := decimal.NewFromString(strings.TrimSpace(lo))
		if err != nil {
			return SearchFilter{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid minimum price")
		}
		maxPrice, err := decimal.NewFromString(strings.TrimSpace(hi))
		if err != nil {
			return SearchFilter{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid maximum price")
		}
		filter.MinPrice = &minPrice
		filter.MaxPrice = &maxPrice
	}
	if r := strings.TrimSpace(input.Rating); r != "" && r != filterAll {
		rating, err := decimal.NewFromString(r)
		if err != nil {
			return SearchFilter{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid rating")
		}
		filter.MinRating = &rating
	}
	return filter, nil
}

func mapFindError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
}

func mapWriteError(err error) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.New(pkgerrors.CodeConflict, "slug already exists")
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save product")
}
