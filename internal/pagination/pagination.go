// Package pagination holds the fixed-size page arithmetic shared by every
// list endpoint.
package pagination

import (
	"errors"
	"math"
	"strconv"

	"github.com/sakif/communities/internal/repository"
)

// PageSize is the number of rows per page on every list endpoint.
const PageSize = 10

// MaxPage is the largest page whose offset and display number still fit in
// an int. Larger requests are clamped to it and come back empty.
const MaxPage = math.MaxInt/PageSize - 1

// Meta is the "meta" object of a list response. Page is 1-based for display.
//
// Pages is total/PageSize + 1, which reports one empty trailing page when
// total is an exact multiple of PageSize. Clients already depend on it.
type Meta struct {
	Page  int `json:"page"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// Parse reads the zero-based page query parameter. Missing, unparsable and
// negative values all mean page 0; anything past MaxPage, including numbers
// too large for an int, means MaxPage.
func Parse(raw string) int {
	page, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) && page > 0 {
		return MaxPage
	}
	if err != nil {
		return 0
	}
	return clamp(page)
}

// Options converts a zero-based page number into repository list options.
func Options(page int) repository.ListOptions {
	return repository.ListOptions{Limit: PageSize, Offset: clamp(page) * PageSize}
}

func NewMeta(page, total int) Meta {
	page = clamp(page)
	return Meta{
		Page:  page + 1,
		Total: total,
		Pages: total/PageSize + 1,
	}
}

func clamp(page int) int {
	switch {
	case page < 0:
		return 0
	case page > MaxPage:
		return MaxPage
	}
	return page
}

// Result is one page of items plus its meta.
type Result[T any] struct {
	Items []T
	Meta  Meta
}
