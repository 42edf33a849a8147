package shared

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// DefaultPageSize applies when the request does not specify one.
const DefaultPageSize = 20

// MaxPageSize caps the page size a client may request.
const MaxPageSize = 100

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int
	PageSize   int
	Total      int
	TotalPages int
}

// NewPagination computes pagination metadata.
func NewPagination(page, pageSize, total int) Pagination {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))
	return Pagination{Page: page, PageSize: pageSize, Total: total, TotalPages: totalPages}
}

// Offset returns the row offset for the current page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// NextLink builds the URL for the following page, or "" on the last page.
func (p Pagination) NextLink(path, query string) string {
	if p.Offset()+p.PageSize >= p.Total {
		return ""
	}
	return pageLink(path, query, p.Page+1)
}

// PreviousLink builds the URL for the preceding page, or "" on the first page.
func (p Pagination) PreviousLink(path, query string) string {
	if p.Page <= 1 {
		return ""
	}
	return pageLink(path, query, p.Page-1)
}

func pageLink(path, query string, page int) string {
	if query == "" {
		return fmt.Sprintf("%s?page=%d", path, page)
	}
	return fmt.Sprintf("%s?page=%d&%s", path, page, query)
}

// ListQuery captures the common listing parameters taken from the URL.
type ListQuery struct {
	Page     int
	PageSize int
	Search   string
	Sort     string
}

// ParseListQuery extracts pagination, search and sort parameters.
// Sort is kept only when present in the allowed set; a leading '-'
// requests descending order.
func ParseListQuery(values url.Values, sortable ...string) ListQuery {
	q := ListQuery{Page: 1, PageSize: DefaultPageSize}
	if page, err := strconv.Atoi(values.Get("page")); err == nil && page > 0 {
		q.Page = page
	}
	if size, err := strconv.Atoi(values.Get("page_size")); err == nil && size > 0 {
		q.PageSize = size
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	q.Search = strings.TrimSpace(values.Get("q"))

	sort := strings.TrimSpace(values.Get("sort"))
	column := strings.TrimPrefix(sort, "-")
	for _, allowed := range sortable {
		if column == allowed {
			q.Sort = sort
			break
		}
	}
	return q
}

// Offset returns the row offset for the requested page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// Encode rebuilds the non-page query parameters for pagination links.
func (q ListQuery) Encode() string {
	values := url.Values{}
	values.Set("page_size", strconv.Itoa(q.PageSize))
	if q.Search != "" {
		values.Set("q", q.Search)
	}
	if q.Sort != "" {
		values.Set("sort", q.Sort)
	}
	return values.Encode()
}
