package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kumabot/kumabot/bot"
	"github.com/kumabot/kumabot/channel"
	"github.com/kumabot/kumabot/channel/console"

	"github.com/panjf2000/ants/v2"
	"github.com/spf13/cobra"
)

var ChatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to kumabot from the terminal.",
	Long:  "Talk to kumabot from the terminal, with the core running embedded in this process.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

func runChat(ctx context.Context) error {
	b, err := bot.Prepare(ctx)
	if err != nil {
		return fmt.Errorf("failed to prepare bot: %w", err)
	}
	defer b.Close()

	adapter := console.New()

	pool, _ := ants.NewPool(64)
	defer pool.Release()

	var wg sync.WaitGroup
	wg.Go(func() {
		adapter.Start(ctx)
	})
	wg.Go(func() {
		messageWorker(ctx, b, adapter, pool)
	})

	wg.Wait()

	return nil
}

func messageWorker(ctx context.Context, b *bot.Bot, adapter channel.Adapter, pool *ants.Pool) {
	for {
		select {
		case <-ctx.Done():
			slog.Info("[chat] message worker stopped", "reason", ctx.Err())
			return
		case req := <-adapter.ReceiveChan():
			pool.Submit(func() {
				resp := b.Processor.Process(ctx, req)
				if resp == nil {
					return
				}

				select {
				case adapter.SendChan() <- resp:
				default:
				}
			})
		}
	}
}
