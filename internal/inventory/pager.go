package inventory

import (
	"fmt"
	"slices"

	"github.com/hakim/asmctl/internal/models"
)

// PageSizes are the supported page sizes.
var PageSizes = []int{5, 10, 25, 50}

// DefaultPageSize is used when no valid size is given.
const DefaultPageSize = 10

// Pager tracks the current page over a filtered list. Changing the filter or
// the page size always returns to page 1.
type Pager struct {
	size   int
	page   int
	filter Filter
}

// NewPager starts on page 1. Unsupported sizes fall back to DefaultPageSize.
func NewPager(size int) *Pager {
	if !slices.Contains(PageSizes, size) {
		size = DefaultPageSize
	}
	return &Pager{size: size, page: 1}
}

func (p *Pager) PageSize() int  { return p.size }
func (p *Pager) Page() int      { return p.page }
func (p *Pager) Filter() Filter { return p.filter }

// SetPageSize changes the page size and resets to page 1.
func (p *Pager) SetPageSize(size int) error {
	if !slices.Contains(PageSizes, size) {
		return fmt.Errorf("page size %d not supported (want one of %v)", size, PageSizes)
	}
	p.size = size
	p.page = 1
	return nil
}

// SetFilter replaces the filter and resets to page 1.
func (p *Pager) SetFilter(f Filter) {
	p.filter = f
	p.page = 1
}

// SetPage requests page n. Out-of-range values are clamped by Paginate.
func (p *Pager) SetPage(n int) {
	p.page = n
}

func (p *Pager) Next() { p.page++ }

func (p *Pager) Prev() {
	if p.page > 1 {
		p.page--
	}
}

// TotalPages is ceil(n/size).
func TotalPages(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// Page is one page of a filtered list
type Page[T any] struct {
	Items      []T
	Number     int
	TotalPages int
	TotalItems int
}

// Paginate applies the pager's filter and returns the current page. The
// requested page is clamped into [1, max(1, TotalPages)] and the pager is
// moved there.
func Paginate[T models.Asset](p *Pager, items []T) Page[T] {
	filtered := Apply(items, p.filter)
	return slicePage(p, filtered)
}

func slicePage[T any](p *Pager, items []T) Page[T] {
	total := TotalPages(len(items), p.size)
	p.page = min(max(p.page, 1), max(total, 1))

	start := (p.page - 1) * p.size
	end := min(start+p.size, len(items))
	page := Page[T]{
		Number:     p.page,
		TotalPages: total,
		TotalItems: len(items),
		Items:      []T{},
	}
	if start < end {
		page.Items = items[start:end]
	}
	return page
}
