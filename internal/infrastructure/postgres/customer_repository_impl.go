package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/clientsphere/internal/domain"
	"github.com/oksasatya/clientsphere/internal/domain/entity"
	"github.com/oksasatya/clientsphere/internal/domain/repository"
)

// DBTX is the subset of *pgxpool.Pool used by the repository.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type CustomerRepository struct {
	db DBTX
}

func NewCustomerRepository(db DBTX) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrInvalidCustomerID
	}
	return nil
}

func scanCustomer(row pgx.Row, c *entity.Customer) error {
	var status string
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.Address,
		&status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return err
	}
	c.Status = entity.CustomerStatus(status)
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, id string) (*entity.Customer, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	c := &entity.Customer{}
	row := r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	if err := scanCustomer(row, c); err != nil {
		return nil, classify("select customer", err)
	}
	return c, nil
}

func (r *CustomerRepository) FindOne(ctx context.Context, f repository.CustomerFilter) (*entity.Customer, error) {
	res, err := r.FindMany(ctx, f, repository.Sort{Field: repository.SortByCreatedAt, Order: repository.SortAsc}, repository.Page{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, domain.ErrCustomerNotFound
	}
	return &res[0], nil
}

func (r *CustomerRepository) FindMany(ctx context.Context, f repository.CustomerFilter, s repository.Sort, p repository.Page) ([]entity.Customer, error) {
	if f.ExcludeID != "" {
		if err := checkID(f.ExcludeID); err != nil {
			return nil, err
		}
	}
	query, args := buildSelect(f, s, p)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("select customers", err)
	}
	defer rows.Close()

	out := make([]entity.Customer, 0, p.Limit)
	for rows.Next() {
		var c entity.Customer
		if err := scanCustomer(rows, &c); err != nil {
			return nil, classify("scan customer", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate customers", err)
	}
	return out, nil
}

func (r *CustomerRepository) Count(ctx context.Context, f repository.CustomerFilter) (int64, error) {
	if f.ExcludeID != "" {
		if err := checkID(f.ExcludeID); err != nil {
			return 0, err
		}
	}
	query, args := buildCount(f)
	var n int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, classify("count customers", err)
	}
	return n, nil
}

func (r *CustomerRepository) CountByStatus(ctx context.Context) ([]repository.StatusCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT status, COUNT(*)
		FROM customers
		GROUP BY status
		ORDER BY COUNT(*) DESC, status ASC
	`)
	if err != nil {
		return nil, classify("count customers by status", err)
	}
	defer rows.Close()

	var out []repository.StatusCount
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, classify("scan status count", err)
		}
		out = append(out, repository.StatusCount{Status: entity.CustomerStatus(status), Count: n})
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate status counts", err)
	}
	return out, nil
}

func (r *CustomerRepository) Insert(ctx context.Context, c *entity.Customer) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO customers (name, email, phone, company, address, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, c.Name, c.Email, c.Phone, c.Company, c.Address, string(c.Status))

	if err := row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return classify("insert customer", err)
	}
	return nil
}

// UpdateByID never moves updated_at backwards, even with clock skew between nodes.
func (r *CustomerRepository) UpdateByID(ctx context.Context, c *entity.Customer) error {
	if err := checkID(c.ID); err != nil {
		return err
	}
	row := r.db.QueryRow(ctx, `
		UPDATE customers
		SET name = $1, email = $2, phone = $3, company = $4, address = $5, status = $6,
		    updated_at = GREATEST(now(), updated_at)
		WHERE id = $7
		RETURNING created_at, updated_at
	`, c.Name, c.Email, c.Phone, c.Company, c.Address, string(c.Status), c.ID)

	if err := row.Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return classify("update customer", err)
	}
	return nil
}

func (r *CustomerRepository) DeleteByID(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	res, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return classify("delete customer", err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}

var _ repository.CustomerRepository = (*CustomerRepository)(nil)
