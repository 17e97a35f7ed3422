package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"
)

// shutdownTimeout bounds how long in-flight requests may take to finish
// once a stop has been requested.
const shutdownTimeout = 5 * time.Second

func (app *application) newServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", app.config.Port),
		Handler:      app.routes(),
		ErrorLog:     log.New(app.logger, "", 0),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// serve runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully and waits for the background goroutines (welcome emails,
// enrichment) to finish.
func (app *application) serve(ctx context.Context) error {
	srv := app.newServer()

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- srv.ListenAndServe()
	}()

	app.logger.PrintInfo("starting server", map[string]string{
		"addr":     srv.Addr,
		"env":      app.config.Env,
		"driver":   app.config.DB.Driver,
		"enricher": fmt.Sprintf("%t", app.enricher != nil),
	})

	select {
	case err := <-listenErr:
		// ListenAndServe only returns early when the listener failed.
		return err
	case <-ctx.Done():
	}

	app.logger.PrintInfo("shutting down server", map[string]string{
		"cause": context.Cause(ctx).Error(),
	})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	if err := <-listenErr; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	app.logger.PrintInfo("completing background tasks", map[string]string{
		"addr": srv.Addr,
	})
	app.wg.Wait()

	app.logger.PrintInfo("stopped server", map[string]string{
		"addr": srv.Addr,
	})

	return nil
}
