package dashboard

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/EmpoweredVote/EV-Circuits/internal/config"
	"github.com/EmpoweredVote/EV-Circuits/internal/middleware"
)

const shutdownTimeout = 10 * time.Second

// NewRouter wires the shared middleware in front of the dashboard routes.
func NewRouter(cfg config.Config, svc *Service, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggingMiddleware(log.Named("http")))
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	r.Mount("/", SetupRoutes(svc, cfg.RefreshInterval))
	return r
}

// Serve listens on cfg.Port until ctx is cancelled, then drains in-flight requests.
func Serve(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	svc := Init(cfg, log)

	srv := &http.Server{
		Addr:              net.JoinHostPort("0.0.0.0", cfg.Port),
		Handler:           NewRouter(cfg, svc, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
