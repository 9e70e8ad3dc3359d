package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/http/pprof"
	"sync"
	"time"

	"github.com/Nzyazin/bank/internal/core/handler"
	"github.com/Nzyazin/bank/internal/core/logger"
	"github.com/Nzyazin/bank/internal/core/metrics"
	middlWre "github.com/Nzyazin/bank/internal/core/middleware"
	"github.com/Nzyazin/bank/internal/core/repository/memory"
	"github.com/Nzyazin/bank/internal/core/usecase"
	"github.com/Nzyazin/bank/pkg/config"
	"github.com/gorilla/mux"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/slok/go-http-metrics/metrics/prometheus"
	"github.com/slok/go-http-metrics/middleware"
	"github.com/slok/go-http-metrics/middleware/std"
)

type Server struct {
	router         *mux.Router
	log            logger.Logger
	mu             sync.Mutex
	httpServer     *http.Server
	accountHandler *handler.AccountHandler
	registry       *prom.Registry
}

func NewServer(cfg *config.Config, log logger.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("server config is required")
	}

	registry := prom.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	accountRepository := memory.NewMemoryAccountRepo(log)
	accountUsecase := usecase.NewAccountUsecase(accountRepository, cfg.Accounts, metrics.NewRecorder(registry), log)
	accountHandler := handler.NewAccountHandler(accountUsecase, log)
	server := &Server{
		log:            log,
		router:         mux.NewRouter(),
		accountHandler: accountHandler,
		registry:       registry,
	}

	server.router.Use(middlWre.Logging(server.log))

	mw := middleware.New(middleware.Config{
		Recorder: prometheus.NewRecorder(prometheus.Config{Registry: registry}),
	})

	server.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			std.Handler(routeTemplate(r), mw, next).ServeHTTP(w, r)
		})
	})

	server.RegisterRoutes()

	return server, nil
}

func (s *Server) RegisterRoutes() {
	s.router.Use(middlWre.Recovery(s.log))
	s.accountHandler.RegisterRoutes(s.router)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	s.router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	s.router.HandleFunc("/debug/pprof/profile", pprof.Profile)
	s.router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	s.router.HandleFunc("/debug/pprof/trace", pprof.Trace)
	s.router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
}

// routeTemplate returns the path template of the matched route for metric labels.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       9 * time.Second,
		WriteTimeout:      12 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 6 * time.Second,
	}

	s.setHTTPServer(srv)

	return srv.ListenAndServe()
}

func (s *Server) RunTLS(addr, certFile, keyFile string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       9 * time.Second,
		WriteTimeout:      9 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 6 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
	}

	s.setHTTPServer(srv)
	return srv.ListenAndServeTLS(certFile, keyFile)
}

func (s *Server) setHTTPServer(srv *http.Server) {
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		s.log.Error("failed to shutdown HTTP server", logger.ErrorField("error", err))
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}
	return nil
}
