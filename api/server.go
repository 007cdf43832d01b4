// Package api serves the stored benchmark results over HTTP: model list,
// per-model predictions and discrepancies, and the accuracy overview. The
// API is read-only; predictions are produced by the CLI.
package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stellarlinkco/idiom-eval/internal/log"
	"github.com/stellarlinkco/idiom-eval/internal/metrics"
)

// Store is the read surface the API serves from. The SQLite store satisfies
// it directly.
type Store interface {
	metrics.Store
}

type Server struct {
	router     *gin.Engine
	store      Store
	aggregator *metrics.Aggregator
	logger     log.Logger
}

func NewServer(st Store, logger log.Logger) (*Server, error) {
	if st == nil {
		return nil, errors.New("api: nil store")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	aggregator, err := metrics.NewAggregator(st, logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:     gin.New(),
		store:      st,
		aggregator: aggregator,
		logger:     logger,
	}
	s.registerMiddleware()
	if err := s.registerRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) Run(addr string) error {
	if s == nil || s.router == nil {
		return errors.New("api: nil server")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = ":8080"
	}
	s.logger.Info("serving results api", "addr", addr)
	return s.router.Run(addr)
}
