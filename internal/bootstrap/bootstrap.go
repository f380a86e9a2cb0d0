package bootstrap

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-hclog"

	focusinadapter "focuslock/internal/modules/focus/adapter/in"
	focusoutadapter "focuslock/internal/modules/focus/adapter/out"
	focusout "focuslock/internal/modules/focus/port/out"
	focusservice "focuslock/internal/modules/focus/service"
	focususecase "focuslock/internal/modules/focus/usecase"
	historyinadapter "focuslock/internal/modules/history/adapter/in"
	historyoutadapter "focuslock/internal/modules/history/adapter/out"
	historyservice "focuslock/internal/modules/history/service"
	historyusecase "focuslock/internal/modules/history/usecase"
	"focuslock/internal/platform/clock"
	"focuslock/internal/platform/config"
	"focuslock/internal/platform/effects"
	"focuslock/internal/platform/id"
	"focuslock/internal/platform/kv"
	uiapp "focuslock/internal/ui/app"
	"focuslock/resources"
)

type App struct {
	FocusCLI   focusinadapter.CLIHandler
	HistoryCLI historyinadapter.CLIHandler
	Logger     hclog.Logger

	store kv.Store
}

func New(cfg config.Config, logger hclog.Logger) (*App, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	clk := clock.SystemClock{}
	historyUC := historyusecase.NewInteractor(
		historyservice.NewHistoryService(clk, historyoutadapter.NewKVRecordStore(store)),
		historyoutadapter.NewMultiFormatExporter(),
	)
	sites := focusoutadapter.NewKVSiteStore(store)
	recorder := focusoutadapter.NewHistoryRecorder(historyUC)

	focusSvc := focusservice.NewFocusService(focusservice.FocusServiceDeps{
		StateDir:   cfg.StateDir,
		HTTPAddr:   cfg.HTTPAddr,
		Sites:      sites,
		Daemon:     focusoutadapter.NewFileDaemonStore(cfg.PIDPath, cfg.SocketPath, cfg.LogPath),
		IPCServer:  focusoutadapter.NewJSONRPCServer(),
		IPCClient:  focusoutadapter.NewJSONRPCClient(),
		BlockPage:  focusoutadapter.NewGinBlockPageServer(),
		NewRuntime: runtimeFactory(cfg, logger, sites, recorder),
		Logger:     logger,
	})

	return &App{
		FocusCLI:   focusinadapter.NewCLIHandler(focususecase.NewInteractor(focusSvc)),
		HistoryCLI: historyinadapter.NewCLIHandler(historyUC),
		Logger:     logger,
		store:      store,
	}, nil
}

func (a *App) Close() error {
	if a == nil || a.store == nil {
		return nil
	}
	return a.store.Close()
}

func openStore(cfg config.Config) (kv.Store, error) {
	switch cfg.StorageBackend {
	case config.StorageRedis:
		store, err := kv.NewRedisStore(kv.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		return store, nil
	default:
		store, err := kv.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	}
}

// runtimeFactory wires the collaborators that only the daemon process owns.
func runtimeFactory(cfg config.Config, logger hclog.Logger, sites focusout.SiteStore, recorder focusout.HistoryRecorder) focusservice.RuntimeFactory {
	return func(ctx context.Context) (focusservice.Runtime, error) {
		db, err := kv.OpenSQLite(cfg.DBPath)
		if err != nil {
			return focusservice.Runtime{}, err
		}
		installed, err := focusoutadapter.NewSQLiteRuleEngine(ctx, db)
		if err != nil {
			_ = db.Close()
			return focusservice.Runtime{}, fmt.Errorf("new rule engine: %w", err)
		}

		var engine focusout.RuleEngine = installed
		if cfg.RulePlugin != "" {
			plugin := focusoutadapter.NewPluginRuleEngine(cfg.RulePlugin, logger)
			if meta, checkErr := plugin.Check(ctx); checkErr != nil {
				logger.Warn("rule plugin unavailable", "plugin", cfg.RulePlugin, "error", checkErr)
			} else {
				logger.Info("rule plugin loaded", "name", meta.Name, "version", meta.Version)
			}
			engine = focusoutadapter.NewChainRuleEngine(installed, plugin)
		}

		notifier, closeNotifier := newNotifier(cfg, logger)

		var sound focusout.SoundPlayer = focusoutadapter.NopSoundPlayer{}
		if cfg.SoundEnabled {
			sound = focusoutadapter.NewBeepPlayer(resources.Sounds, "sounds", cfg.SoundVolume)
		}

		queue := effects.NewQueue()
		manager := focusservice.NewSessionManager(focusservice.ManagerDeps{
			Clock:     clock.SystemClock{},
			Scheduler: clock.SystemScheduler{},
			IDs:       id.UUID{},
			Rules:     focusservice.NewRuleSet(engine, cfg.RuleDestination),
			Notifier:  notifier,
			Sound:     sound,
			Sites:     sites,
			History:   recorder,
			Effects:   queue,
			Logger:    logger.Named("session"),
		}, cfg.ReminderInterval)

		return focusservice.Runtime{
			Manager: manager,
			Matcher: installed,
			Close: func() error {
				return errors.Join(closeNotifier(), db.Close())
			},
		}, nil
	}
}

func newNotifier(cfg config.Config, logger hclog.Logger) (focusout.Notifier, func() error) {
	fallback := focusoutadapter.NewLogNotifier(logger)
	if cfg.NotifyBackend == config.NotifyLog {
		return fallback, func() error { return nil }
	}
	dbus, err := focusoutadapter.NewDBusNotifier()
	if err != nil {
		logger.Warn("desktop notifications unavailable, logging instead", "error", err)
		return fallback, func() error { return nil }
	}
	return dbus, dbus.Close
}

func RunTUI(app *App) error {
	model := uiapp.NewModel(app.FocusCLI, app.HistoryCLI)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
