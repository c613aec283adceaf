package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageParamsNormalize(t *testing.T) {
	p := PageParams{Page: 0, Limit: 0}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPageSize, p.Limit)
	assert.Equal(t, "asc", p.Order)

	p = PageParams{Page: -3, Limit: 500, Order: "DESC"}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, MaxPageSize, p.Limit)
	assert.Equal(t, "desc", p.Order)

	p = PageParams{Page: 4, Limit: 25, Order: "sideways"}.Normalize()
	assert.Equal(t, 4, p.Page)
	assert.Equal(t, 25, p.Limit)
	assert.Equal(t, "asc", p.Order)
}

func TestPageParamsOffset(t *testing.T) {
	assert.Equal(t, 0, PageParams{Page: 1, Limit: 20}.Offset())
	assert.Equal(t, 40, PageParams{Page: 3, Limit: 20}.Offset())
}

func TestPageParamsOrderClause(t *testing.T) {
	allowed := map[string]string{"title": "books.title"}

	p := PageParams{Sort: "title", Order: "desc"}.Normalize()
	assert.Equal(t, "books.title desc", p.OrderClause(allowed, "id ASC"))

	// Unknown sort keys fall back instead of reaching ORDER BY
	p = PageParams{Sort: "title; DROP TABLE books"}.Normalize()
	assert.Equal(t, "id ASC", p.OrderClause(allowed, "id ASC"))

	p = PageParams{}.Normalize()
	assert.Equal(t, "id ASC", p.OrderClause(allowed, "id ASC"))
}

func TestNewPagination(t *testing.T) {
	cases := []struct {
		name       string
		limit      int
		total      int64
		totalPages int
	}{
		{"empty", 20, 0, 0},
		{"exact fit", 20, 40, 2},
		{"remainder rounds up", 20, 41, 3},
		{"single partial page", 20, 5, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPagination(PageParams{Page: 1, Limit: tc.limit}, tc.total)
			assert.Equal(t, tc.totalPages, p.TotalPages)
			assert.Equal(t, tc.total, p.Total)
		})
	}
}
