package inventory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hakim/asmctl/internal/models"
)

func domains(n int) []models.Domain {
	out := make([]models.Domain, n)
	for i := range out {
		out[i] = models.Domain{ID: fmt.Sprint(i), DomainName: fmt.Sprintf("d%02d.example.com", i)}
	}
	return out
}

func TestTotalPages(t *testing.T) {
	tests := []struct{ n, size, want int }{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{23, 5, 5},
		{50, 25, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TotalPages(tt.n, tt.size), "n=%d size=%d", tt.n, tt.size)
	}
}

func TestPaginateClampsPastLastPage(t *testing.T) {
	p := NewPager(10)
	p.SetPage(99)

	page := Paginate(p, domains(23))
	assert.Equal(t, 3, page.Number)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Items, 3)
	assert.Equal(t, 3, p.Page(), "pager moves to the clamped page")

	p.SetPage(-4)
	page = Paginate(p, domains(23))
	assert.Equal(t, 1, page.Number)
}

func TestPaginateEmpty(t *testing.T) {
	p := NewPager(5)
	p.SetPage(2)
	page := Paginate(p, []models.Domain{})
	assert.Equal(t, 1, page.Number)
	assert.Equal(t, 0, page.TotalPages)
	assert.Empty(t, page.Items)
}

func TestFilterAndSizeChangesResetPage(t *testing.T) {
	p := NewPager(5)
	p.SetPage(4)
	p.SetFilter(Filter{Query: "d1"})
	assert.Equal(t, 1, p.Page())

	p.SetPage(3)
	require.NoError(t, p.SetPageSize(25))
	assert.Equal(t, 1, p.Page())
	assert.Equal(t, 25, p.PageSize())

	assert.Error(t, p.SetPageSize(7))
	assert.Equal(t, 25, p.PageSize())
}

func TestPaginateAppliesFilter(t *testing.T) {
	p := NewPager(5)
	p.SetFilter(Filter{Query: "d1"})
	page := Paginate(p, domains(20))
	assert.Equal(t, 10, page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, "d10.example.com", page.Items[0].DomainName)
}

func TestNewPagerRejectsOddSizes(t *testing.T) {
	assert.Equal(t, DefaultPageSize, NewPager(0).PageSize())
	assert.Equal(t, DefaultPageSize, NewPager(13).PageSize())
	assert.Equal(t, 50, NewPager(50).PageSize())
}
