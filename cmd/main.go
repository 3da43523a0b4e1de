package main

import (
	"github.com/kumabot/kumabot/cmd/chat"
	"github.com/kumabot/kumabot/cmd/consumer"
	"github.com/kumabot/kumabot/config"
	"github.com/kumabot/kumabot/pkg/process"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use: "kumabot",
}

func init() {
	config.MustInit()

	rootCmd.AddCommand(consumer.ConsumerCmd)
	rootCmd.AddCommand(chat.ChatCmd)
}

func main() {
	ctx, cancel, wait := process.GetRootContext()
	rootCmd.ExecuteContext(ctx)
	cancel()

	wait()
}
