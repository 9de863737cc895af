package application

import (
	"math"
	"strconv"
	"strings"

	"github.com/oksasatya/clientsphere/internal/domain/entity"
	repo "github.com/oksasatya/clientsphere/internal/domain/repository"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100

	// maxPage keeps (page-1)*pageSize well inside int64.
	maxPage = math.MaxInt32
)

// ListParams are the raw, untrusted browse parameters of a directory view.
type ListParams struct {
	Page      string `form:"page"`
	PageSize  string `form:"pageSize"`
	Search    string `form:"search"`
	Status    string `form:"status"`
	SortField string `form:"sortField"`
	SortOrder string `form:"sortOrder"`
}

// DirectoryPage is one page of customers plus the state needed to render the
// next request without any server-side session.
type DirectoryPage struct {
	Records          []entity.Customer `json:"records"`
	Page             int               `json:"page"`
	PageSize         int               `json:"page_size"`
	TotalCount       int64             `json:"total_count"`
	TotalPages       int               `json:"total_pages"`
	AppliedSearch    string            `json:"applied_search"`
	AppliedStatus    string            `json:"applied_status"`
	AppliedSortField repo.SortField    `json:"applied_sort_field"`
	AppliedSortOrder repo.SortOrder    `json:"applied_sort_order"`
}

// listQuery is the validated form of ListParams.
type listQuery struct {
	page     int
	pageSize int
	search   string
	status   string
	filter   repo.CustomerFilter
	sort     repo.Sort
	window   repo.Page
}

func parsePositive(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// buildListQuery never fails: malformed values fall back to defaults.
func buildListQuery(p ListParams) listQuery {
	q := listQuery{
		page:     parsePositive(p.Page, DefaultPage),
		pageSize: parsePositive(p.PageSize, DefaultPageSize),
		search:   strings.TrimSpace(p.Search),
		status:   strings.TrimSpace(p.Status),
	}
	if q.pageSize > MaxPageSize {
		q.pageSize = MaxPageSize
	}
	if q.page > maxPage {
		q.page = maxPage
	}

	q.filter = repo.CustomerFilter{NameContains: q.search, Status: q.status}

	field := repo.SortField(strings.TrimSpace(p.SortField))
	if !field.Valid() {
		field = repo.SortByCreatedAt
	}
	order := repo.SortOrder(strings.ToLower(strings.TrimSpace(p.SortOrder)))
	if order != repo.SortAsc && order != repo.SortDesc {
		order = repo.SortDesc
	}
	q.sort = repo.Sort{Field: field, Order: order}

	q.window = repo.Page{Offset: (q.page - 1) * q.pageSize, Limit: q.pageSize}
	return q
}

func totalPages(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

func (q listQuery) result(records []entity.Customer, total int64) DirectoryPage {
	if records == nil {
		records = []entity.Customer{}
	}
	return DirectoryPage{
		Records:          records,
		Page:             q.page,
		PageSize:         q.pageSize,
		TotalCount:       total,
		TotalPages:       totalPages(total, q.pageSize),
		AppliedSearch:    q.search,
		AppliedStatus:    q.status,
		AppliedSortField: q.sort.Field,
		AppliedSortOrder: q.sort.Order,
	}
}
