package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	product "github.com/angelmondragon/prostore-backend/internal/products"
	pkgerrors "github.com/angelmondragon/prostore-backend/pkg/errors"
	"github.com/angelmondragon/prostore-backend/pkg/pagination"
)

type stubProductService struct {
	product.Service
	search  product.SearchInput
	slug    string
	latest  []product.ProductDTO
	exportB []byte
	err     error
}

func (s *stubProductService) Latest(ctx context.Context) ([]product.ProductDTO, error) {
	return s.latest, s.err
}

func (s *stubProductService) GetBySlug(ctx context.Context, slug string) (*product.ProductDTO, error) {
	s.slug = slug
	if s.err != nil {
		return nil, s.err
	}
	return &product.ProductDTO{Slug: slug, Price: "59.99", Rating: "4.50"}, nil
}

func (s *stubProductService) Search(ctx context.Context, input product.SearchInput) (pagination.Page[product.ProductDTO], error) {
	s.search = input
	return pagination.Page[product.ProductDTO]{Data: []product.ProductDTO{{Slug: "polo"}}, TotalPages: 3}, s.err
}

func TestProductsSearchPassesFilters(t *testing.T) {
	svc := &stubProductService{}
	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/products/search?q=polo&category=Men&price=1-50&rating=4&sort=lowest&page=2", nil)
	rec := serve(ProductsSearch(svc, testLogger()), req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.Equal(t, product.SearchInput{
		Query: "polo", Category: "Men", Price: "1-50", Rating: "4", Sort: "lowest", Page: 2,
	}, svc.search)

	var page pagination.Page[product.ProductDTO]
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &page))
	require.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Data, 1)
}

func TestProductsSearchRejectsBadPage(t *testing.T) {
	svc := &stubProductService{}
	rec := serve(ProductsSearch(svc, testLogger()),
		httptest.NewRequest(http.MethodGet, "/api/v1/products/search?page=zero", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(ProductsSearch(svc, testLogger()),
		httptest.NewRequest(http.MethodGet, "/api/v1/products/search?page=0", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductBySlug(t *testing.T) {
	svc := &stubProductService{}
	req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/v1/products/polo", nil), "slug", "polo")
	rec := serve(ProductBySlug(svc, testLogger()), req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "polo", svc.slug)

	svc.err = pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
	rec = serve(ProductBySlug(svc, testLogger()), req)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Product not found", decodeEnvelope(t, rec).Message)
}

func TestProductsLatestDependencyFailure(t *testing.T) {
	svc := &stubProductService{err: pkgerrors.New(pkgerrors.CodeDependency, "list latest products")}
	rec := serve(ProductsLatest(svc, testLogger()), httptest.NewRequest(http.MethodGet, "/api/v1/products/latest", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
