package command

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"leveltx-service/internal/application"
	"leveltx-service/internal/config"
	infraconfig "leveltx-service/internal/infrastructure/config"
	httpserver "leveltx-service/internal/infrastructure/http"
	"leveltx-service/internal/infrastructure/logx"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var legacy bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := logx.L()
			var uowOpts []application.UoWOption
			if legacy {
				uowOpts = append(uowOpts, application.WithFreshConnRollback())
			}
			app, err := opts.build(opts.config(), uowOpts...)
			if err != nil {
				return err
			}
			defer app.Close()

			srv := httpserver.NewServer(app.Service, func(name string) (config.DataSource, error) {
				if name == "" {
					name = opts.source
				}
				return app.Source(name)
			})
			srv.SetReadyCheck(app.Ready)

			port := app.Config.Port
			if port == "" {
				port = infraconfig.DefaultHTTPPort
			}
			server := &http.Server{Addr: ":" + port, Handler: httpserver.NewRouter(srv)}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("server started", zap.String("addr", server.Addr))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), infraconfig.DefaultShutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return err
			}
			logger.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&legacy, "legacy-rollback", false, "roll back failed batches on a fresh connection")
	return cmd
}
