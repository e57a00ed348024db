package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/quotedesk/internal/numbering"
	"github.com/odyssey-erp/quotedesk/internal/platform/cache"
	"github.com/odyssey-erp/quotedesk/internal/quotation"
)

type numberOpts struct {
	date  string
	redis string
	count int
	seed  int64
}

func (c *CLI) numberCommand() *cobra.Command {
	opts := numberOpts{count: 1}

	cmd := &cobra.Command{
		Use:   "number",
		Short: "Allocate quote numbers",
		Long: `Allocate quote numbers for a calendar day. Without --redis the counter lives in memory and
starts after --seed, which is useful for dry runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runNumber(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.date, "date", "", "calendar day as YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&opts.redis, "redis", "", "Redis address of the shared counter")
	cmd.Flags().IntVarP(&opts.count, "count", "n", opts.count, "how many numbers to allocate")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "last issued sequence for the in-memory counter")

	return cmd
}

func (c *CLI) runNumber(cmd *cobra.Command, opts numberOpts) error {
	ctx := cmd.Context()
	date := time.Now()
	if opts.date != "" {
		parsed, err := time.Parse(quotation.DateLayout, opts.date)
		if err != nil {
			return fmt.Errorf("date %q: want YYYY-MM-DD", opts.date)
		}
		date = parsed
	}
	if opts.count < 1 {
		return fmt.Errorf("count must be positive, got %d", opts.count)
	}

	var seq numbering.Sequencer
	if opts.redis != "" {
		client, err := cache.New(ctx, cache.Options{Addr: opts.redis})
		if err != nil {
			return err
		}
		defer client.Close()
		seq = numbering.NewRedisSequencer(client)
		c.Logger.Debug("using redis counter", "addr", opts.redis)
	} else {
		mem := numbering.NewMemorySequencer()
		mem.Seed(numbering.Day(date), opts.seed)
		seq = mem
	}

	svc := numbering.NewService(seq)
	for i := 0; i < opts.count; i++ {
		number, err := svc.NextNumber(ctx, date)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), number)
	}
	return nil
}
