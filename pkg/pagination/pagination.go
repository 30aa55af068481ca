package pagination

import (
	"strconv"
	"strings"
)

const (
	// DefaultLimit is the storefront page size when none is configured.
	DefaultLimit = 2
	// MaxLimit caps how many rows any page query can request.
	MaxLimit = 100
)

// Params holds page-number pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Page is one page of rows plus the total page count.
type Page[T any] struct {
	Data       []T `json:"data"`
	TotalPages int `json:"totalPages"`
}

// Normalize clamps the page to >= 1 and the limit to [1, MaxLimit],
// substituting fallback when limit is unset.
func (p Params) Normalize(fallback int) Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = fallback
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset returns the row offset for the page.
func (p Params) Offset() int {
	if p.Page < 1 || p.Limit <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// TotalPages returns ceil(total/limit).
func TotalPages(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// ParsePage reads a 1-based page number, defaulting to 1 on blank or bad input.
func ParsePage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// New builds a page, never returning a nil slice.
func New[T any](rows []T, total int64, limit int) Page[T] {
	if rows == nil {
		rows = []T{}
	}
	return Page[T]{Data: rows, TotalPages: TotalPages(total, limit)}
}
