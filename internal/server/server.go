package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	portalgate "github.com/MrEthical07/portalgate"
	"github.com/MrEthical07/portalgate/metrics/export/prometheus"
	"github.com/MrEthical07/portalgate/middleware"
)

// Options configures a Server.
type Options struct {
	// WebRoot holds portal.html and static/.
	WebRoot string
	// TrustedProxies may set X-Forwarded-For. Nil trusts none.
	TrustedProxies []string
	Logger         *slog.Logger
}

// Server is the portal HTTP front end.
type Server struct {
	engine  *portalgate.Engine
	webRoot string
	logger  *slog.Logger
	router  *gin.Engine
	metrics *prometheus.PrometheusExporter
}

// New builds the router. The engine is required.
func New(engine *portalgate.Engine, opts Options) (*Server, error) {
	if engine == nil {
		return nil, errors.New("server: nil engine")
	}
	if opts.WebRoot == "" {
		opts.WebRoot = "./web"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	router := gin.New()
	if err := router.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, err
	}

	s := &Server{
		engine:  engine,
		webRoot: opts.WebRoot,
		logger:  opts.Logger,
		router:  router,
		metrics: prometheus.NewPrometheusExporter(engine),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router
	r.Use(gin.Recovery(), serverHeader(), middleware.RequestContext(), middleware.AccessLog(s.logger))

	r.GET("/healthz", handleHealth)
	r.GET("/portal", s.handlePortal)
	r.Static("/static", s.staticDir())

	api := r.Group("/api")
	api.POST("/login", s.handleLogin)
	api.GET("/check", middleware.Guard(s.engine), handleCheck)
	api.POST("/logout", s.handleLogout)

	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests
// for at most shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("portal listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down portal")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func serverHeader() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Server", "portalgate")
		c.Next()
	}
}
