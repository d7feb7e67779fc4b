package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/searchbadges/badges"
	"github.com/meghashyamc/searchbadges/config"
	"github.com/meghashyamc/searchbadges/db/kvdb"
	"github.com/meghashyamc/searchbadges/db/searchdb"
	"github.com/meghashyamc/searchbadges/logger"
	"github.com/meghashyamc/searchbadges/metrics"
	"github.com/meghashyamc/searchbadges/services/index"
	"github.com/meghashyamc/searchbadges/services/search"
	"github.com/meghashyamc/searchbadges/validation"
)

const shutdownTimeout = 10 * time.Second

type server struct {
	cfg           *config.Config
	router        *gin.Engine
	httpServer    *http.Server
	kvdb          kvdb.DB
	searchdb      searchdb.DB
	validator     *validation.Validator
	metrics       *metrics.Metrics
	indexService  *index.Service
	searchService *search.Service
	logger        logger.Logger
}

// Run serves the API until ctx is cancelled or the process is interrupted.
func Run(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s := &server{
		cfg:    cfg,
		logger: logger.New(cfg.GetLogLevel()),
	}
	if err := s.setupDependencies(ctx); err != nil {
		return err
	}
	defer s.closeDependencies()

	s.setupRouter()
	return s.serve(ctx)
}

func (s *server) setupDependencies(ctx context.Context) error {
	props, err := badges.LoadProps(s.cfg.GetBadgesPath())
	if err != nil {
		s.logger.Error("error loading badges config", "path", s.cfg.GetBadgesPath(), "err", err.Error())
		return err
	}

	kvDB, err := kvdb.New(s.logger, s.cfg)
	if err != nil {
		s.logger.Error("error creating kvDB", "err", err.Error())
		return err
	}
	s.kvdb = kvDB

	searchDB, err := searchdb.New(s.logger, s.cfg)
	if err != nil {
		s.logger.Error("error creating searchDB", "err", err.Error())
		s.closeDependencies()
		return err
	}
	s.searchdb = searchDB

	s.validator, err = validation.New(s.logger)
	if err != nil {
		s.logger.Error("error creating validator", "err", err.Error())
		s.closeDependencies()
		return err
	}

	s.metrics = metrics.New()
	s.indexService = index.New(ctx, s.logger, s.searchdb, s.kvdb, s.metrics, s.cfg.GetDefaultLang())
	s.searchService = search.New(s.logger, s.searchdb, s.kvdb, props, s.metrics, search.Settings{
		ExcerptLength: s.cfg.GetExcerptLength(),
		BaseURL:       s.cfg.GetBaseURL(),
		FilterKey:     s.cfg.GetFilterKey(),
	})

	return nil
}

func (s *server) setupRouter() {
	router := newRouter(s.cfg.GetAllowedOrigins())

	router.Use(loggingMiddleware(s.logger))
	router.Use(s.metrics.Middleware())

	setupRoutes(router, s.logger, s.indexService, s.searchService, s.metrics, s.validator)

	s.router = router
}

func (s *server) serve(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%s", s.cfg.GetPort()),
		Handler:           s.router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			s.logger.Error("http server failed", "err", err.Error())
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("starting to shut down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("error shutting down http server", "err", err.Error())
		return err
	}
	s.logger.Info("shut down http server successfully")
	return nil
}

func (s *server) closeDependencies() {
	if s.searchdb != nil {
		if err := s.searchdb.Close(); err != nil {
			s.logger.Error("error closing searchDB", "err", err.Error())
		}
	}
	if s.kvdb != nil {
		if err := s.kvdb.Close(); err != nil {
			s.logger.Error("error closing kvDB", "err", err.Error())
		}
	}
}
