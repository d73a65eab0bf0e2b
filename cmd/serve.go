package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/adeneu/portfolio-web/internal/router"
	_ "github.com/adeneu/portfolio-web/internal/router/handlers"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		slog.Info("starting portfolio-web server...", slog.String("listen", cfg.Listen))

		supplements, err := router.NewSupplements(ctx, cfg)
		if err != nil {
			return err
		}

		r := router.New(cfg, supplements)
		if err := r.InitRoutes(); err != nil {
			supplements.Close()
			return err
		}

		errs := make(chan error, 1)
		go func() {
			errs <- r.Listen(cfg.Listen)
		}()

		select {
		case err = <-errs:
		case <-ctx.Done():
			slog.Info("shutting down")
		}

		if closeErr := r.Close(); closeErr != nil {
			slog.Error("fail to shut down cleanly", slog.String("error", closeErr.Error()))
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
