// Package pagination slices ordered result sets into fixed-size pages.
// Requested page numbers are lenient: anything unusable is clamped to the
// nearest valid page instead of failing.
package pagination

import (
	"errors"
	"strconv"
	"strings"
)

const DefaultPerPage = 10

type Page struct {
	Number   int
	NumPages int
	PerPage  int
	Total    int64
}

type Paginator struct {
	PerPage int
}

func New(perPage int) Paginator {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return Paginator{PerPage: perPage}
}

// Page resolves requested (typically the raw "page" query value) against a
// result set of total items.
func (p Paginator) Page(total int64, requested string) Page {
	perPage := p.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if total < 0 {
		total = 0
	}

	numPages := int((total + int64(perPage) - 1) / int64(perPage))
	if numPages == 0 {
		numPages = 1
	}

	return Page{
		Number:   clamp(parseNumber(requested), numPages),
		NumPages: numPages,
		PerPage:  perPage,
		Total:    total,
	}
}

// parseNumber reads a page number. Values too large for int saturate, so
// clamp still sends them to the last (or first) page.
func parseNumber(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if errors.Is(err, strconv.ErrRange) {
		return n
	}
	if err != nil {
		return 1
	}
	return n
}

func clamp(n, numPages int) int {
	if n < 1 {
		return 1
	}
	if n > numPages {
		return numPages
	}
	return n
}

func (p Page) Offset() int { return (p.Number - 1) * p.PerPage }
func (p Page) Limit() int  { return p.PerPage }

func (p Page) HasPrevious() bool { return p.Number > 1 }
func (p Page) HasNext() bool     { return p.Number < p.NumPages }
func (p Page) HasOtherPages() bool {
	return p.HasPrevious() || p.HasNext()
}

func (p Page) PreviousNumber() int {
	if !p.HasPrevious() {
		return p.Number
	}
	return p.Number - 1
}

func (p Page) NextNumber() int {
	if !p.HasNext() {
		return p.Number
	}
	return p.Number + 1
}

// StartIndex is the 1-based index of the first item on the page, 0 when empty.
func (p Page) StartIndex() int64 {
	if p.Total == 0 {
		return 0
	}
	return int64(p.Offset()) + 1
}

func (p Page) EndIndex() int64 {
	end := int64(p.Number * p.PerPage)
	if end > p.Total {
		end = p.Total
	}
	return end
}

// Range lists every page number, for navigation controls.
func (p Page) Range() []int {
	out := make([]int, p.NumPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// Paginate applies a page to an in-memory ordered slice.
func Paginate[T any](items []T, perPage int, requested string) (Page, []T) {
	page := New(perPage).Page(int64(len(items)), requested)
	start := page.Offset()
	if start > len(items) {
		start = len(items)
	}
	end := start + page.Limit()
	if end > len(items) {
		end = len(items)
	}
	return page, items[start:end]
}
