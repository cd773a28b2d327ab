package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yeisme/creativevault/pkg/app"
	"github.com/yeisme/creativevault/pkg/configs"
	"github.com/yeisme/creativevault/pkg/log"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the ingestion, moderation and catalog HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg := configs.GetConfig()
		cfg.Server.Debug = cfg.Server.Debug || debug

		a, err := app.New(ctx, cfg)
		if err != nil {
			return err
		}

		defer func() {
			if err := a.Close(); err != nil {
				l := log.Logger()
				l.Warn().Err(err).Msg("close app")
			}
		}()

		return a.Run(ctx)
	},
}

// registerServeCommands 注册服务端命令.
func registerServeCommands() {
	rootCmd.AddCommand(serveCmd)
}

// commandContext 返回命令上下文，未设置时使用 Background.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}
