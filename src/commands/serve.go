package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"secdb/src/directors"
	"secdb/src/server"
	"secdb/src/settings"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the data file over HTTP until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := server.NewLogger(c.args)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if c.args.Verbose {
				logger.Infow("secdb starting",
					"data_file", c.args.DataFile,
					"users_file", c.args.UsersFile,
					"addr", c.args.Addr(),
					"config_file", c.args.ConfigFile,
				)
			}

			if err := settings.EnsureDirs(c.args); err != nil {
				return err
			}
			services, err := directors.NewServiceManager(c.args, logger)
			if err != nil {
				logger.Errorw("Failed to open database", "error", err)
				return err
			}
			defer services.Close()

			srv := server.NewServer(c.args, services, logger)
			if err := srv.Start(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			logger.Info("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
