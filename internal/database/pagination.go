package database

import (
	"fmt"
	"strings"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageParams carries the normalized paging/sorting inputs for list queries.
// Page is 1-based. Sort must come from the repository's allow-list so that
// user input never reaches ORDER BY unchecked.
type PageParams struct {
	Page  int
	Limit int
	Sort  string
	Order string
}

// Pagination is the metadata block returned alongside every paginated list.
// TotalPages is ceil(Total/Limit), so an empty result has TotalPages == 0.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Normalize clamps paging values into sane bounds and lowercases the order.
func (p PageParams) Normalize() PageParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	p.Order = strings.ToLower(p.Order)
	if p.Order != "desc" {
		p.Order = "asc"
	}
	return p
}

// Offset returns the row offset for the normalized page.
func (p PageParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// OrderClause resolves the sort key against an allow-list of column
// expressions. Unknown keys fall back to the provided default clause.
func (p PageParams) OrderClause(allowed map[string]string, fallback string) string {
	column, ok := allowed[p.Sort]
	if !ok {
		return fallback
	}
	return fmt.Sprintf("%s %s", column, p.Order)
}

// NewPagination builds the metadata block for a completed count query.
func NewPagination(params PageParams, total int64) Pagination {
	totalPages := int((total + int64(params.Limit) - 1) / int64(params.Limit))
	return Pagination{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages,
	}
}
