package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/warp/job-tracker/api"
	"github.com/warp/job-tracker/seed"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Start the HTTP API and block until SIGINT or SIGTERM.

On shutdown the server stops accepting connections, waits up to
server.shutdown_timeout for active requests and closes the database.

When seed.job_types_file is set, its job types are imported before the
server starts listening.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().Int("port", 0, "HTTP server port (overrides server.port)")
	if err := a.v.BindPFlag("server.port", cmd.Flags().Lookup("port")); err != nil {
		panic(err)
	}
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	if err := a.cfg.ValidateAuth(); err != nil {
		return err
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if file := a.cfg.Seed.JobTypesFile; file != "" {
		jobTypes, err := seed.LoadJobTypesFile(file)
		if err != nil {
			return err
		}
		if _, err := seed.ImportJobTypes(ctx, store, jobTypes); err != nil {
			return err
		}
		a.log.WithFields(logrus.Fields{"file": file, "count": len(jobTypes)}).Info("job types imported")
	}

	auth := api.NewAuthenticator(a.cfg.Auth.JWTSecret, a.cfg.Auth.TokenTTL)
	handler := api.NewHandler(store, auth, a.log)
	router := api.NewRouter(handler, a.cfg.CORS)

	server := &http.Server{
		Addr:         a.cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		a.log.WithFields(logrus.Fields{
			"addr":     server.Addr,
			"database": a.cfg.Database.Path,
		}).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-quit:
		a.log.WithField("signal", sig.String()).Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	a.log.Info("server stopped")
	return nil
}
