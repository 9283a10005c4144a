// Package listutil parses search, sort and paging parameters of admin
// list pages and cuts result slices into pages.
package listutil

import (
	"net/url"
	"slices"
	"strconv"
)

// DefaultPerPage is the page size when the request names none.
const DefaultPerPage = 25

// PerPageOptions are the page sizes offered by the list pages.
var PerPageOptions = []int{25, 50, 100}

// Sort directions.
const (
	Asc  = "asc"
	Desc = "desc"
)

// Params is one list request: free-text search, an exact category
// filter, a sort column and a page.
type Params struct {
	Search   string
	Category string
	Sort     string
	Dir      string
	Page     int
	PerPage  int
}

// Parse reads q, category, sort, dir, page and per_page from a query string.
// PRE: sortable[0] is the default sort column
// POST: Sort is one of sortable, Category is empty or one of categories,
// Dir is Asc or Desc, Page >= 1 and PerPage is one of PerPageOptions
func Parse(q url.Values, sortable, categories []string) Params {
	p := Params{
		Search:  q.Get("q"),
		Sort:    q.Get("sort"),
		Dir:     q.Get("dir"),
		PerPage: DefaultPerPage,
	}
	if c := q.Get("category"); slices.Contains(categories, c) {
		p.Category = c
	}
	if !slices.Contains(sortable, p.Sort) {
		p.Sort = ""
		if len(sortable) > 0 {
			p.Sort = sortable[0]
		}
	}
	if p.Dir != Desc {
		p.Dir = Asc
	}
	p.Page, _ = strconv.Atoi(q.Get("page"))
	if p.Page < 1 {
		p.Page = 1
	}
	if n, err := strconv.Atoi(q.Get("per_page")); err == nil && slices.Contains(PerPageOptions, n) {
		p.PerPage = n
	}
	return p
}

// Query encodes p back into a query string pointing at page.
// Defaults are left out so links stay short.
func (p Params) Query(page int) string {
	v := url.Values{}
	if p.Search != "" {
		v.Set("q", p.Search)
	}
	if p.Category != "" {
		v.Set("category", p.Category)
	}
	if p.Sort != "" {
		v.Set("sort", p.Sort)
	}
	if p.Dir == Desc {
		v.Set("dir", Desc)
	}
	if page > 1 {
		v.Set("page", strconv.Itoa(page))
	}
	if p.PerPage != DefaultPerPage {
		v.Set("per_page", strconv.Itoa(p.PerPage))
	}
	return v.Encode()
}

// Toggle returns the query that sorts by column, flipping the direction
// when column is already the sort column. Paging restarts at page one.
func (p Params) Toggle(column string) string {
	next := p
	if p.Sort == column && p.Dir == Asc {
		next.Dir = Desc
	} else {
		next.Dir = Asc
	}
	next.Sort = column
	return next.Query(1)
}

// PageInfo is the paging state of one rendered list.
type PageInfo struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPageInfo clamps page into the range the total allows.
// POST: TotalPages >= 1 and 1 <= Page <= TotalPages
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := max((total+perPage-1)/perPage, 1)
	return PageInfo{
		Page:       min(max(page, 1), totalPages),
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Offset is the index of the first row on the page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// StartRow is the 1-based number of the first row shown, 0 for an empty list.
func (p PageInfo) StartRow() int {
	if p.Total == 0 {
		return 0
	}
	return p.Offset() + 1
}

// EndRow is the 1-based number of the last row shown.
func (p PageInfo) EndRow() int {
	return min(p.Offset()+p.PerPage, p.Total)
}

// PageNumbers lists at most five page links centred on the current page.
func (p PageInfo) PageNumbers() []int {
	const window = 5
	start := max(p.Page-window/2, 1)
	end := min(start+window-1, p.TotalPages)
	start = max(end-window+1, 1)
	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}

// ShowPagination reports whether the list spans more than one page.
func (p PageInfo) ShowPagination() bool {
	return p.TotalPages > 1
}

// Window returns the rows of items that fall on the page of info.
func Window[T any](items []T, info PageInfo) []T {
	from := min(info.Offset(), len(items))
	to := min(from+info.PerPage, len(items))
	return items[from:to]
}
