package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"coindash/internal/alerting"
	"coindash/internal/coingecko"
	"coindash/internal/config"
	"coindash/internal/dashboard"
	"coindash/internal/detail"
	"coindash/internal/favorites"
	"coindash/internal/logging"
	"coindash/internal/market"
	"coindash/internal/storage"
	"coindash/internal/version"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Out    io.Writer
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logging.Component(logger, "app"), Out: os.Stdout}
}

func (a *App) newClient() *coingecko.Client {
	cfg := a.Config.CoinGecko
	ua := cfg.UserAgent
	if ua == "" {
		ua = version.UserAgent()
	}
	return coingecko.New(coingecko.Options{
		BaseURL:           cfg.BaseURL,
		APIKey:            cfg.APIKey,
		APIKeyHeader:      cfg.APIKeyHeader,
		Timeout:           cfg.RequestTimeout,
		UserAgent:         ua,
		RequestsPerMinute: cfg.RequestsPerMinute,
	}, a.Logger)
}

func (a *App) newLoader(client *coingecko.Client) *detail.Loader {
	return detail.New(client, detail.Options{
		Timeout: a.Config.Dashboard.DetailTimeout,
		Days:    a.Config.Dashboard.HistoryDays,
	}, a.Logger)
}

func (a *App) newStore(client *coingecko.Client, favs market.Membership) (*market.Store, error) {
	key, err := market.ParseSortKey(a.Config.Dashboard.Sort)
	if err != nil {
		return nil, err
	}
	return market.NewStore(client, favs, market.StoreOptions{
		Limit: a.Config.Dashboard.ListingSize,
		Sort:  key,
	}, a.Logger), nil
}

// openFavorites opens the configured backend and loads the favorite set.
// The returned closer releases the backend.
func (a *App) openFavorites(ctx context.Context) (*favorites.Set, func(), error) {
	kv, err := storage.Open(ctx, a.Config.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}
	closer := func() {
		if err := kv.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("close storage")
		}
	}

	set, err := favorites.Load(ctx, kv, a.Config.Dashboard.FavoritesKey, a.Logger)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return set, closer, nil
}

func (a *App) newNotifier() alerting.Notifier {
	if !a.Config.Alerting.Enabled {
		return nil
	}
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return alerting.NewLogNotifier(a.Logger)
}

func (a *App) newWatcher(notifier alerting.Notifier) *alerting.Watcher {
	if notifier == nil {
		return nil
	}
	return alerting.NewWatcher(notifier, alerting.WatcherOptions{
		ThresholdPct: a.Config.Alerting.ThresholdPct,
		Cooldown:     a.Config.Alerting.Cooldown,
	}, a.Logger)
}

func (a *App) newDashboard(client *coingecko.Client, favs *favorites.Set) (*dashboard.Controller, error) {
	store, err := a.newStore(client, favs)
	if err != nil {
		return nil, err
	}

	deps := dashboard.Deps{
		Listing:   store,
		Favorites: favs,
		Search:    client,
		Details:   a.newLoader(client),
	}
	if w := a.newWatcher(a.newNotifier()); w != nil {
		deps.Alerts = w
	}

	currencies := make([]market.Currency, 0, len(a.Config.Dashboard.Currencies))
	for _, cur := range a.Config.Dashboard.Currencies {
		currencies = append(currencies, market.NormalizeCurrency(cur))
	}

	return dashboard.New(deps, dashboard.Options{
		Currency:       market.NormalizeCurrency(a.Config.Dashboard.Currency),
		Currencies:     currencies,
		RefreshSeconds: a.Config.Dashboard.RefreshInterval,
		RefreshOptions: a.Config.Dashboard.RefreshOptions,
		AlignRefresh:   a.Config.Dashboard.AlignRefresh,
		HistoryDays:    a.Config.Dashboard.HistoryDays,
	}, a.Logger), nil
}

// currency resolves a CLI override against the configured list.
func (a *App) currency(override string) (market.Currency, error) {
	if override == "" {
		return market.NormalizeCurrency(a.Config.Dashboard.Currency), nil
	}
	if !a.Config.AllowsCurrency(override) {
		return "", fmt.Errorf("%w: %q", dashboard.ErrUnsupportedCurrency, override)
	}
	return market.NormalizeCurrency(override), nil
}

// TopOptions configure the top command.
type TopOptions struct {
	Currency      string
	Sort          string
	FavoritesOnly bool
	Limit         int
}

// ExportOptions hold parameters for exporting a price history.
type ExportOptions struct {
	ID       string
	Currency string
	Days     int
	PNGPath  string
	CSVPath  string
}
