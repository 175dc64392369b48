package models

import (
	"fmt"

	"github.com/desertthunder/bookshelf/internal/shared"
)

// Validator is implemented by request payloads that check their own fields.
type Validator interface {
	Validate() error // Validate returns an error wrapping [shared.ErrInvalidInput] when a field is out of range
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Items    []T  `json:"items"`
	Total    int  `json:"total"`
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasMore  bool `json:"has_more"`
}

// NewPage builds a [Page], deriving HasMore from the total count.
func NewPage[T any](items []T, total, page, pageSize int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasMore:  page*pageSize < total,
	}
}

// SyncSummary reports the outcome of one collection sync.
//
// Total counts releases that were fetched and normalized; Skipped counts items dropped during extraction.
type SyncSummary struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
	Total   int `json:"total"`
	Skipped int `json:"skipped"`
}

// Pagination holds page and page-size query values.
type Pagination struct {
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// Normalize fills in defaults for zero values.
func (p *Pagination) Normalize() {
	if p.Page == 0 {
		p.Page = 1
	}
	if p.PageSize == 0 {
		p.PageSize = DefaultPageSize
	}
}

func (p Pagination) Validate() error {
	if p.Page < 1 {
		return fmt.Errorf("%w: page must be >= 1", shared.ErrInvalidInput)
	}
	if p.PageSize < 1 || p.PageSize > MaxPageSize {
		return fmt.Errorf("%w: page_size must be between 1 and %d", shared.ErrInvalidInput, MaxPageSize)
	}
	return nil
}

// Offset returns the row offset for the page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", shared.ErrInvalidInput, fmt.Sprintf(format, args...))
}
