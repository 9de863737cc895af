package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oksasatya/clientsphere/internal/domain/entity"
	repo "github.com/oksasatya/clientsphere/internal/domain/repository"
	pginfra "github.com/oksasatya/clientsphere/internal/infrastructure/postgres"
	"github.com/oksasatya/clientsphere/internal/infrastructure/search"
	"github.com/oksasatya/clientsphere/pkg/helpers"
)

const reindexBatch = 200

type indexSyncer interface {
	Upsert(ctx context.Context, c entity.Customer) error
	Delete(ctx context.Context, id string) error
	LiveIDs(ctx context.Context, after string, size int) ([]string, error)
}

// reindexAll pages through the store oldest first and upserts every record,
// then tombstones indexed documents the store no longer has.
func reindexAll(ctx context.Context, r repo.CustomerRepository, idx indexSyncer) (upserted, removed int, err error) {
	sort := repo.Sort{Field: repo.SortByCreatedAt, Order: repo.SortAsc}
	seen := make(map[string]struct{})
	for offset := 0; ; offset += reindexBatch {
		batch, err := r.FindMany(ctx, repo.CustomerFilter{}, sort, repo.Page{Offset: offset, Limit: reindexBatch})
		if err != nil {
			return upserted, removed, err
		}
		for _, c := range batch {
			if err := idx.Upsert(ctx, c); err != nil {
				return upserted, removed, fmt.Errorf("upsert %s: %w", c.ID, err)
			}
			seen[c.ID] = struct{}{}
			upserted++
		}
		if len(batch) < reindexBatch {
			break
		}
	}

	after := ""
	for {
		ids, err := idx.LiveIDs(ctx, after, reindexBatch)
		if err != nil {
			return upserted, removed, err
		}
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			if err := idx.Delete(ctx, id); err != nil {
				return upserted, removed, fmt.Errorf("remove %s: %w", id, err)
			}
			removed++
		}
		if len(ids) < reindexBatch {
			return upserted, removed, nil
		}
		after = ids[len(ids)-1]
	}
}

func newReindexCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the Elasticsearch customers index from postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(opts.cfg.ESAddrs()) == 0 {
				return errors.New("ELASTICSEARCH_ADDRS is not set")
			}
			es, err := helpers.NewESClient(opts.cfg.ESAddrs(), opts.cfg.ElasticsearchUser, opts.cfg.ElasticsearchPass)
			if err != nil {
				return err
			}
			idx := search.NewCustomerIndex(es, opts.cfg.ESCustomersIndex, opts.logger)
			if err := idx.EnsureIndex(ctx); err != nil {
				return err
			}

			pool, err := opts.openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			upserted, removed, err := reindexAll(ctx, pginfra.NewCustomerRepository(pool), idx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reindexed %d customers, removed %d stale documents\n", upserted, removed)
			return nil
		},
	}
}
