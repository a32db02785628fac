package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/courierops/manifest2csv/internal/config"
	"github.com/courierops/manifest2csv/internal/fetch"
	"github.com/courierops/manifest2csv/internal/manifest"
	"github.com/courierops/manifest2csv/internal/pdfext"
)

// RecordParser converts manifest PDF bytes into output records.
type RecordParser interface {
	Parse(data []byte) ([]*manifest.Record, error)
}

// URLFetcher downloads a remote file within a size cap.
type URLFetcher interface {
	Fetch(ctx context.Context, fileURL string) ([]byte, error)
}

// Server is the HTTP transport around the parse pipeline. Request handling is
// concurrent, but the parse-and-serialize region is a critical section: a
// single admission lock keeps one parse in flight system-wide.
type Server struct {
	httpServer *http.Server
	parser     RecordParser
	fetcher    URLFetcher
	logger     *slog.Logger
	cfg        *config.Config

	parseMu sync.Mutex
}

// New wires the extraction collaborator, parser and fetcher into an HTTP
// server per the given configuration.
func New(cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		parser:  manifest.NewParser(pdfext.NewExtractor(cfg.MaxFileSize)),
		fetcher: fetch.New(cfg.MaxFileSize, cfg.FetchTimeout),
		logger:  logger,
		cfg:     cfg,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("POST /process/file", s.handleProcessFile)
	mux.HandleFunc("POST /process/url", s.handleProcessURL)

	s.httpServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      mux,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Run starts the server and blocks until ctx is cancelled or the listener
// fails.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}
