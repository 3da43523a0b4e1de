package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kumabot/kumabot/bot"
	"github.com/kumabot/kumabot/bot/model"
	"github.com/kumabot/kumabot/bus"
	"github.com/kumabot/kumabot/config"
	"github.com/kumabot/kumabot/pkg/safe"

	"github.com/panjf2000/ants/v2"
	"github.com/spf13/cobra"
)

var ConsumerCmd = &cobra.Command{
	Use:   "consumer",
	Short: "Start the kumabot bus consumer.",
	Long:  "Start the kumabot bus consumer: read requests from the bus, process them, publish responses.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConsumer(cmd.Context())
	},
}

func runConsumer(ctx context.Context) error {
	b, err := bot.Prepare(ctx)
	if err != nil {
		return fmt.Errorf("failed to prepare bot: %w", err)
	}
	defer b.Close()

	conf := config.GetConfig()
	producer := bus.NewProducer(b.Redis, conf.Bus.StreamMaxLength)

	// Responses travel back over the per-source outbound streams. The
	// publish must survive shutdown of in-flight work, hence the
	// detached context.
	publishCtx := context.WithoutCancel(ctx)
	b.Processor.SubscribeResponded(func(resp *model.Response) {
		safe.Go(func() {
			if err := producer.PublishResponse(publishCtx, resp); err != nil {
				slog.Error("[consumer] failed to publish response",
					"source", resp.SourceSystem, "error", err)
			}
		})
	})

	pool, _ := ants.NewPool(256)
	defer pool.Release()

	// The read loop only fires work into the pool, so a slow command
	// never stalls it.
	consumer := bus.NewConsumer(b.Redis, func(req *model.Request) {
		err := pool.Submit(func() {
			b.Processor.Process(ctx, req)
		})
		if err != nil {
			slog.Warn("[consumer] dropped request", "error", err)
		}
	}, bus.ConsumerConfig{
		Block: time.Duration(conf.Bus.BlockSeconds) * time.Second,
	})

	return consumer.Run(ctx)
}
