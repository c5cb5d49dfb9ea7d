package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"coindash/internal/dashboard"
	"coindash/internal/web"
)

// Serve runs the dashboard web server until SIGINT/SIGTERM.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	favs, closeStore, err := a.openFavorites(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	ctrl, err := a.newDashboard(a.newClient(), favs)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	srv, err := web.New(ctrl, web.Options{
		Addr:            a.Config.Server.Addr,
		Mode:            a.Config.Server.Mode,
		ReadTimeout:     a.Config.Server.ReadTimeout,
		WriteTimeout:    a.Config.Server.WriteTimeout,
		ShutdownTimeout: a.Config.Server.ShutdownTimeout,
		SettleTimeout:   a.Config.Dashboard.SettleTimeout,
		ChartWidth:      a.Config.Export.ChartWidth,
		ChartHeight:     a.Config.Export.ChartHeight,
	}, a.Logger)
	if err != nil {
		return err
	}

	a.Logger.Info().
		Str("currency", a.Config.Dashboard.Currency).
		Int("favorites", favs.Len()).
		Str("storage", a.Config.Storage.Driver).
		Msg("starting dashboard")
	if err := ctrl.Start(ctx); err != nil {
		return err
	}

	err = srv.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("dashboard terminated with error")
		return err
	}

	a.Logger.Info().Msg("dashboard stopped")
	return nil
}

var _ web.Dashboard = (*dashboard.Controller)(nil)
