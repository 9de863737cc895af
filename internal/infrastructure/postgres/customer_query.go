package postgres

import (
	"strconv"
	"strings"

	"github.com/oksasatya/clientsphere/internal/domain/repository"
)

const customerColumns = `id, name, email, phone, company, address, status, created_at, updated_at`

var sortColumns = map[repository.SortField]string{
	repository.SortByName:      "name",
	repository.SortByEmail:     "email",
	repository.SortByStatus:    "status",
	repository.SortByCreatedAt: "created_at",
}

// queryBuilder accumulates a parameterized WHERE clause.
type queryBuilder struct {
	conds []string
	args  []any
}

func (b *queryBuilder) add(cond string, arg any) {
	b.args = append(b.args, arg)
	b.conds = append(b.conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(b.args))))
}

func (b *queryBuilder) where() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

// escapeLike neutralizes LIKE metacharacters; backslash is the default escape.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func filterClause(f repository.CustomerFilter) *queryBuilder {
	b := &queryBuilder{}
	if f.NameContains != "" {
		b.add("name ILIKE ?", "%"+escapeLike(f.NameContains)+"%")
	}
	if f.NamePrefix != "" {
		b.add("lower(name) LIKE ?", strings.ToLower(escapeLike(f.NamePrefix))+"%")
	}
	if f.Status != "" {
		b.add("status = ?", f.Status)
	}
	if f.Email != "" {
		b.add("email = ?", f.Email)
	}
	if f.ExcludeID != "" {
		b.add("id <> ?", f.ExcludeID)
	}
	if !f.CreatedSince.IsZero() {
		b.add("created_at >= ?", f.CreatedSince)
	}
	return b
}

// orderClause always ends with id ASC so equal sort keys paginate deterministically.
func orderClause(s repository.Sort) string {
	col, ok := sortColumns[s.Field]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if s.Order == repository.SortAsc {
		dir = "ASC"
	}
	return " ORDER BY " + col + " " + dir + ", id ASC"
}

func buildSelect(f repository.CustomerFilter, s repository.Sort, p repository.Page) (string, []any) {
	b := filterClause(f)
	sql := "SELECT " + customerColumns + " FROM customers" + b.where() + orderClause(s)
	if p.Limit > 0 {
		b.args = append(b.args, p.Limit)
		sql += " LIMIT $" + strconv.Itoa(len(b.args))
	}
	if p.Offset > 0 {
		b.args = append(b.args, p.Offset)
		sql += " OFFSET $" + strconv.Itoa(len(b.args))
	}
	return sql, b.args
}

func buildCount(f repository.CustomerFilter) (string, []any) {
	b := filterClause(f)
	return "SELECT COUNT(*) FROM customers" + b.where(), b.args
}
