package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marcelsud/webhook-inspector/config"
	"github.com/marcelsud/webhook-inspector/internal/logger"
	"github.com/marcelsud/webhook-inspector/internal/store"
	"github.com/marcelsud/webhook-inspector/webhook"
	"github.com/marcelsud/webhook-inspector/webhook/cursor"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

/* seed fills the configured store with fake captured requests
* Usage: go run ./cmd/seed --count 200 --reset
 */

type options struct {
	count int
	batch int
	reset bool
	seed  uint64
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := options{}
	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Populate the webhook store with fake requests",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.GetConfig()
			if err != nil {
				return err
			}
			logger := logger.New("webhook-seed", cfg.LogLevel)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			repo, err := store.Open(ctx, cfg)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer repo.Close(context.Background())

			cursors, err := cursor.NewRandomCodec()
			if err != nil {
				return err
			}
			service := webhook.NewService(repo, cursors, webhook.WithLogger(logger))

			return run(ctx, service, logger, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.count, "count", "n", 200, "number of webhooks to create")
	cmd.Flags().IntVar(&opts.batch, "batch", 50, "progress is logged after every batch")
	cmd.Flags().BoolVar(&opts.reset, "reset", false, "delete every stored webhook first")
	cmd.Flags().Uint64Var(&opts.seed, "seed", uint64(time.Now().UnixNano()), "random seed")

	return cmd
}

func run(ctx context.Context, service webhook.UseCase, logger zerolog.Logger, opts options) error {
	if opts.batch <= 0 {
		opts.batch = 50
	}

	if opts.reset {
		deleted, err := reset(ctx, service)
		if err != nil {
			return err
		}
		logger.Info().Int("deleted", deleted).Msg("existing webhooks removed")
	}

	gen := newGenerator(opts.seed)
	for i := 1; i <= opts.count; i++ {
		if _, err := service.Capture(ctx, gen.Webhook()); err != nil {
			return fmt.Errorf("seeding webhook %d: %w", i, err)
		}
		if i%opts.batch == 0 || i == opts.count {
			logger.Info().Int("inserted", i).Int("total", opts.count).Msg("seeding")
		}
	}

	logger.Info().Int("count", opts.count).Msg("seed complete")
	return nil
}

// reset walks the feed and deletes every record
func reset(ctx context.Context, service webhook.UseCase) (int, error) {
	deleted := 0
	for {
		page, err := service.List(ctx, "", webhook.MaxPageSize)
		if err != nil {
			return deleted, fmt.Errorf("listing webhooks: %w", err)
		}
		if len(page.Webhooks) == 0 {
			return deleted, nil
		}
		for _, wh := range page.Webhooks {
			if err := service.Delete(ctx, wh.ID); err != nil {
				return deleted, err
			}
			deleted++
		}
	}
}
