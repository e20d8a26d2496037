package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fitmate/web"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the browser chat UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.cfg.CleanupEnabled && a.cfg.CleanupInterval > 0 {
				cleanup := web.NewCleanupService(a.agent, a.logger)
				go cleanup.Run(ctx, a.cfg.CleanupInterval, a.cfg.ConversationIdleAge)
			}

			server := web.NewServer(a.agent, a.logger, a.cfg, a.metrics)

			port := fmt.Sprintf(":%d", a.cfg.WebPort)
			a.logger.Info("Starting FitMate web server", zap.String("port", port))
			if err := server.Start(ctx, port); err != nil {
				a.logger.Error("Web server error", zap.Error(err))
				return err
			}
			return nil
		},
	}

	cmd.Flags().Int("port", 0, "port to listen on")
	mustBind("WEB_PORT", cmd.Flags().Lookup("port"))
	return cmd
}
