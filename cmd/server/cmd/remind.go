package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studentaffairs/portal/internal/cache"
	"github.com/studentaffairs/portal/internal/config"
	"github.com/studentaffairs/portal/internal/domain/events"
	"github.com/studentaffairs/portal/internal/storage/postgres"
)

func newRemindCommand(opts *rootOptions) *cobra.Command {
	var recipient string

	cmd := &cobra.Command{
		Use:   "remind <event-id>",
		Short: "Evaluate the day-before reminder for one event",
		Long: `Evaluate the day-before reminder for one event against the database,
sending the email when the event starts tomorrow. Prints the outcome as JSON.

Example:
  server remind 42 --email student@school.edu`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := events.ParseID(args[0])
			if err != nil {
				return fmt.Errorf("invalid event id %q", args[0])
			}
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runRemind(ctx, cmd, cfg, id, recipient)
		},
	}

	cmd.Flags().StringVar(&recipient, "email", "", "recipient address")
	return cmd
}

func runRemind(ctx context.Context, cmd *cobra.Command, cfg config.Config, id int64, recipient string) error {
	logger := config.NewLogger(cfg.Logging)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return err
	}

	// A single evaluation gains nothing from a shared cache.
	deps, err := buildServices(cfg, repo.Events(), cache.NewMemoryCache(cfg.Cache.TTL), logger)
	if err != nil {
		return err
	}

	item, err := deps.Events.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("event %d: %w", id, err)
	}
	result := deps.Reminders.Evaluate(ctx, item.Event, recipient)

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
