package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/lmsquiz/internal/lms"
	"github.com/hyperifyio/lmsquiz/internal/server"
)

// ServerConfig maps cfg onto the HTTP API settings. Server sessions never
// share the on-disk page cache.
func (c Config) ServerConfig() server.Config {
	return server.Config{
		CORSOrigins:          c.CORSOrigins,
		SessionSecret:        c.SessionSecret,
		SessionTTL:           c.SessionTTL,
		BaseURL:              c.BaseURL,
		AllowBaseURLOverride: c.AllowBaseURLOverride,
		Session: lms.Options{
			Transport:  newLMSTransport(),
			Extraction: c.extraction(),
		},
		Logger: log.Logger,
	}
}

// Serve runs the HTTP API until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, cfg Config) error {
	srv, err := server.New(cfg.ServerConfig())
	if err != nil {
		return err
	}
	if cfg.SessionSecret == "" {
		log.Warn().Msg("SESSION_SECRET not set; tokens will not survive a restart")
	}
	hs := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		errCh <- hs.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Msg("shutting down")
	return hs.Shutdown(shutdownCtx)
}
