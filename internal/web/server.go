package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"coindash/internal/dashboard"
	"coindash/internal/market"
)

// Dashboard is the controller surface the handlers drive.
type Dashboard interface {
	Page() dashboard.Page
	Navigate(screen dashboard.Screen) error
	ToggleFavoritesFilter() bool
	SubmitSearch(ctx context.Context, query string) error
	SelectAsset(id string) error
	ToggleFavorite(ctx context.Context, id string) (bool, error)
	SetCurrency(ctx context.Context, cur market.Currency) error
	SetSort(key market.SortKey)
	SetRefreshInterval(seconds int) error
	Settle(ctx context.Context) error
	History(id string) ([]market.PricePoint, market.Currency, bool)
}

// Options tune the HTTP server.
type Options struct {
	Addr            string
	Mode            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	SettleTimeout   time.Duration
	ChartWidth      int
	ChartHeight     int
}

// Server binds the dashboard to HTTP.
type Server struct {
	opts   Options
	dash   Dashboard
	engine *gin.Engine
	http   *http.Server
	logger zerolog.Logger
}

// New constructs the server and its router.
func New(dash Dashboard, opts Options, logger zerolog.Logger) (*Server, error) {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	if opts.SettleTimeout <= 0 {
		opts.SettleTimeout = 3 * time.Second
	}
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		opts:   opts,
		dash:   dash,
		logger: logger.With().Str("component", "web").Logger(),
	}
	s.engine = s.newRouter(tmpl)
	s.http = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.engine,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s, nil
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("dashboard listening")
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	s.logger.Info().Msg("dashboard stopped")
	return nil
}
