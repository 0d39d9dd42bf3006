package web

import (
	"context"
	_ "embed"
	stderrors "errors"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dogfacts/dogfacts/internal/config"
	"github.com/dogfacts/dogfacts/internal/store"
)

//go:embed index.md
var indexMarkdown string

// shutdownTimeout bounds how long in-flight requests get after a signal.
const shutdownTimeout = 5 * time.Second

// NewServer creates and configures the HTTP server for the fact API.
func NewServer(st store.Store, cfg *config.Config, logger *zap.Logger, version string) *http.Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Handlers{
		store:  st,
		cfg:    cfg,
		logger: logger,
		index:  renderIndex(indexMarkdown, version),
	}

	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax
	mux.HandleFunc("GET /{$}", h.HandleIndex)
	mux.HandleFunc("GET /healthz", h.HandleHealth)
	mux.HandleFunc("GET /v1/facts/{count}", h.HandleGetFacts)
	mux.HandleFunc("POST /v1/facts/new", h.HandleCreateFact)

	handler := requestID(accessLog(logger, securityHeaders(mux)))

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run listens on srv.Addr and serves until ctx is done or SIGINT/SIGTERM
// arrives, then shuts down gracefully.
func Run(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	return Serve(ctx, srv, ln, logger)
}

// Serve is Run on an existing listener.
func Serve(ctx context.Context, srv *http.Server, ln net.Listener, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := ln.Addr().String()
	logger.Info("dogfacts API running", zap.String("addr", "http://"+addr))
	if strings.HasPrefix(addr, "0.0.0.0") || strings.HasPrefix(addr, "[::]") {
		logger.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
