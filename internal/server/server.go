// Package server exposes the command table over HTTP for the GUI front-end.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/dltime/internal/dispatch"
)

const maxBodyBytes = 1 << 20

type Options struct {
	Version        string
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
}

type InvokeReply struct {
	ID      string `json:"id"`
	Command string `json:"command"`
	Result  any    `json:"result"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

type CommandsReply struct {
	Commands []string `json:"commands"`
}

type VersionReply struct {
	Version string `json:"version"`
}

func (InvokeReply) Render(w http.ResponseWriter, r *http.Request) error   { return nil }
func (CommandsReply) Render(w http.ResponseWriter, r *http.Request) error { return nil }
func (VersionReply) Render(w http.ResponseWriter, r *http.Request) error  { return nil }

func NewRouter(d *dispatch.Dispatcher, opts Options) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(requestLogger)
	if len(opts.AllowedOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		}))
	}

	router.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		_ = render.Render(w, r, VersionReply{Version: opts.Version})
	})
	router.Get("/commands", func(w http.ResponseWriter, r *http.Request) {
		_ = render.Render(w, r, CommandsReply{Commands: d.Commands()})
	})
	router.Post("/invoke/{command}", func(w http.ResponseWriter, r *http.Request) {
		invokeHandler(d, w, r)
	})
	if opts.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	return router
}

func invokeHandler(d *dispatch.Dispatcher, w http.ResponseWriter, r *http.Request) {
	command := chi.URLParam(r, "command")
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		_ = render.Render(w, r, InvokeReply{Command: command, Error: "error reading request body: " + err.Error(), Kind: dispatch.KindInvalidInput})
		return
	}

	inv, err := d.Invoke(r.Context(), command, body)
	reply := InvokeReply{ID: inv.ID, Command: inv.Command, Result: inv.Result}
	if err != nil {
		reply.Kind = dispatch.ErrorKind(err)
		reply.Error = err.Error()
		render.Status(r, statusForKind(reply.Kind))
	}
	_ = render.Render(w, r, reply)
}

func statusForKind(kind string) int {
	switch kind {
	case dispatch.KindInvalidInput:
		return http.StatusBadRequest
	case dispatch.KindUnknownCommand:
		return http.StatusNotFound
	case dispatch.KindOverflow:
		return http.StatusUnprocessableEntity
	case dispatch.KindProbeFailed:
		return http.StatusBadGateway
	case dispatch.KindCanceled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Info().Str("op", "server/request").
			Str("method", r.Method).
			Str("uri", r.RequestURI).
			Int("status", ww.Status()).
			Dur("latency", time.Since(start)).
			Msg("handled request")
	})
}

type Server struct {
	httpServer *http.Server
}

func New(addr string, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("op", "server/run").Msgf("Listening on %s", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info().Str("op", "server/run").Msg("Shutting down")
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
