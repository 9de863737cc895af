package application

import (
	"context"
	"strings"
	"time"

	"github.com/oksasatya/clientsphere/internal/domain/entity"
	repo "github.com/oksasatya/clientsphere/internal/domain/repository"
)

const (
	DefaultSuggestSize = 5
	MaxSuggestSize     = 20
)

// Suggestion is a lightweight autocomplete hit.
type Suggestion struct {
	ID      string                `json:"id"`
	Name    string                `json:"name"`
	Email   string                `json:"email"`
	Company string                `json:"company"`
	Status  entity.CustomerStatus `json:"status"`
}

// Suggester answers name-prefix lookups from a secondary index.
// Results must be ordered by name, then id.
type Suggester interface {
	Suggest(ctx context.Context, prefix string, size int) ([]Suggestion, error)
}

// Suggest returns customers whose name starts with prefix, case-insensitively.
// The search index is preferred; the store answers when it is absent or failing.
func (s *CustomerService) Suggest(ctx context.Context, prefix string, size int) ([]Suggestion, error) {
	const op = "customer.suggest"
	start := time.Now()

	prefix = strings.TrimSpace(prefix)
	if size < 1 {
		size = DefaultSuggestSize
	}
	if size > MaxSuggestSize {
		size = MaxSuggestSize
	}
	if prefix == "" {
		s.observe(op, outcomeOK, start)
		return []Suggestion{}, nil
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	if s.Suggester != nil {
		out, err := s.Suggester.Suggest(sctx, prefix, size)
		if err == nil {
			s.observe(op, outcomeOK, start)
			return out, nil
		}
		s.Logger.WithError(err).WithField("prefix", prefix).Warn("search index suggest failed, falling back to store")
	}

	records, err := s.Repo.FindMany(sctx, repo.CustomerFilter{NamePrefix: prefix},
		repo.Sort{Field: repo.SortByName, Order: repo.SortAsc},
		repo.Page{Limit: size})
	if err != nil {
		return nil, s.fail(ctx, op, start, err)
	}
	out := make([]Suggestion, 0, len(records))
	for _, c := range records {
		out = append(out, Suggestion{ID: c.ID, Name: c.Name, Email: c.Email, Company: c.Company, Status: c.Status})
	}
	s.observe(op, outcomeOK, start)
	return out, nil
}
