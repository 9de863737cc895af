package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oksasatya/clientsphere/internal/application"
	"github.com/oksasatya/clientsphere/internal/domain/entity"
	"github.com/oksasatya/clientsphere/internal/domain/identity"
	pginfra "github.com/oksasatya/clientsphere/internal/infrastructure/postgres"
)

var (
	firstNames = []string{"Ada", "Grace", "Alan", "Linus", "Barbara", "Ken", "Margaret", "Dennis", "Radia", "Edsger"}
	lastNames  = []string{"Lovelace", "Hopper", "Turing", "Torvalds", "Liskov", "Thompson", "Hamilton", "Ritchie", "Perlman", "Dijkstra"}
	companies  = []string{"Acme", "Globex", "Initech", "Umbrella", "Hooli", "Stark Industries"}
)

// sampleCustomers returns n deterministic inputs with unique emails.
func sampleCustomers(n int) []application.CustomerInput {
	statuses := entity.AllowedStatuses()
	out := make([]application.CustomerInput, 0, n)
	for i := 0; i < n; i++ {
		first := firstNames[i%len(firstNames)]
		last := lastNames[(i/len(firstNames))%len(lastNames)]
		out = append(out, application.CustomerInput{
			Name:    first + " " + last,
			Email:   fmt.Sprintf("%s.%s.%d@example.com", first, last, i),
			Phone:   fmt.Sprintf("+1-555-%04d", i),
			Company: companies[i%len(companies)],
			Status:  string(statuses[i%len(statuses)]),
		})
	}
	return out
}

// seedCustomers creates every input through the engine. Duplicates are
// skipped so the command can be re-run.
func seedCustomers(ctx context.Context, svc *application.CustomerService, inputs []application.CustomerInput) (created, skipped int, err error) {
	for _, in := range inputs {
		_, err := svc.Create(ctx, in)
		switch {
		case err == nil:
			created++
		case application.KindOf(err) == application.KindDuplicateEmail:
			skipped++
		default:
			return created, skipped, err
		}
	}
	return created, skipped, nil
}

func newCustomersCommand(opts *rootOptions) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "customers",
		Short: "Insert sample customers into the postgres store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := identity.WithCaller(cmd.Context(), identity.Caller{UserID: "seed"})
			pool, err := opts.openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := application.NewCustomerService(pginfra.NewCustomerRepository(pool), opts.logger, opts.cfg.StoreTimeout)
			created, skipped, err := seedCustomers(ctx, svc, sampleCustomers(count))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded customers: created=%d skipped=%d\n", created, skipped)
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 50, "number of customers")
	return cmd
}
