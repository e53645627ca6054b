// Package server is a development backend that speaks the answering
// service's wire protocol over a local SQLite database. It does not translate
// natural language: /ask runs the question only if it is already a read-only
// SQL statement.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/sadopc/askfin/internal/model"
)

// Backend is the storage the handlers need; *store.Store implements it.
type Backend interface {
	RunQuery(ctx context.Context, query string) (*model.QueryResult, error)
	Dashboard(ctx context.Context) (*model.DashboardSnapshot, error)
	ListReports(ctx context.Context) ([]model.SavedReport, error)
	CreateReport(ctx context.Context, name, query string) (*model.SavedReport, error)
	DeleteReport(ctx context.Context, id int64) error
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Backend         Backend
}

type WebAPI struct {
	router          *chi.Mux
	logger          *zerolog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

func New(logger zerolog.Logger, cfg Config) *WebAPI {
	h := &handler{backend: cfg.Backend}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(Logger(&logger))
	router.Use(middleware.Recoverer)

	router.Post("/ask", h.ask)
	router.Get("/dashboard", h.dashboard)
	router.Route("/reports", func(r chi.Router) {
		r.Get("/", h.listReports)
		r.Post("/", h.createReport)
		r.Delete("/{reportID}", h.deleteReport)
	})

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: timeout,
	}
}

func (w *WebAPI) Handler() http.Handler { return w.router }

// Start serves until ctx is cancelled, then shuts down gracefully.
func (w *WebAPI) Start(ctx context.Context) error {
	serverErrors := make(chan error, 1)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		w.logger.Info().Msg("shutdown initiated")

		sctx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()

		err := w.server.Shutdown(sctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}
		return err
	}
}
