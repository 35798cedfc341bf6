package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/claimlab/apiserver/internal/mq"
	"github.com/claimlab/apiserver/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Subscribe to claim events and log them",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		backend, err := mq.NewFromConfig(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if backend == nil {
			return errors.New("MQ_BACKEND is not set; nothing to subscribe to")
		}

		events := mq.NewClaimEvents(backend, cfg.MQ.EventsChannel, logger)
		defer events.Close()

		logger.Info("subscribed", zap.String("channel", events.Channel()), zap.String("backend", cfg.MQ.Backend))
		err = events.Consume(ctx, func(_ context.Context, event types.ClaimEvent) error {
			logger.Info("claim event",
				zap.String("type", event.Type),
				zap.Int("claim_id", event.ClaimID),
				zap.Int("actor_id", event.ActorID),
				zap.String("actor_username", event.ActorUsername),
				zap.Time("occurred_at", event.OccurredAt),
			)
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("consume claim events: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
}
