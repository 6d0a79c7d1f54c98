package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/genricoloni/mirrorctl/internal/api"
	"github.com/genricoloni/mirrorctl/internal/config"
	"github.com/genricoloni/mirrorctl/internal/display"
	"github.com/genricoloni/mirrorctl/internal/domain"
	"github.com/genricoloni/mirrorctl/internal/engine"
	"github.com/genricoloni/mirrorctl/internal/executor"
	"github.com/genricoloni/mirrorctl/internal/notify"
	"github.com/genricoloni/mirrorctl/internal/persist"
	"github.com/genricoloni/mirrorctl/internal/processor"
	"github.com/genricoloni/mirrorctl/internal/store"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// AppOptions is the complete dependency graph of the daemon
var AppOptions = fx.Options(
	// Logger configuration
	fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: log}
	}),

	// Provide dependencies
	fx.Provide(
		newLogger,
		fx.Annotate(config.NewAppConfig, fx.As(fx.Self()), fx.As(new(domain.Config))),
		newSQLiteStore,
		func(s *persist.SQLiteStore) domain.Persister { return s },
		func(s *persist.SQLiteStore) domain.LocaleStore { return s },
		newStore,
		newADBClient,
		newLauncher,
		fx.Annotate(newCommander, fx.As(new(domain.Commander))),
		fx.Annotate(processor.NewThumbnailProcessor, fx.As(new(domain.Thumbnailer))),
		display.NewScreenResolution,
		newEngine,
		newHandler,
		newOriginPolicy,
		api.NewHub,
		fx.Annotate(newRouter, fx.As(new(http.Handler))),
		api.NewServer,
		newNotifier,
	),

	// Lifecycle hooks
	fx.Invoke(registerHooks),
)

func main() {
	app := fx.New(AppOptions)

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Start the application
	if err := app.Start(ctx); err != nil {
		panic(err)
	}

	// Wait for interrupt signal
	<-ctx.Done()

	// Stop the application gracefully
	if err := app.Stop(context.Background()); err != nil {
		panic(err)
	}
}

// debugEnabled reports whether MIRRORCTL_DEBUG asks for verbose output
func debugEnabled() bool {
	return os.Getenv("MIRRORCTL_DEBUG") == "1"
}

// newLogger creates a new zap logger instance
func newLogger() (*zap.Logger, error) {
	if debugEnabled() {
		return zap.NewDevelopment()
	}
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return logger, nil
}

func newSQLiteStore(logger *zap.Logger, cfg *config.AppConfig) (*persist.SQLiteStore, error) {
	return persist.NewSQLiteStore(logger, cfg.GetDataDir(), cfg.GetDefaultLocale())
}

func newStore(logger *zap.Logger, p domain.Persister, cfg *config.AppConfig) *store.Store {
	return store.New(logger, p, store.Options{NotificationTTL: cfg.GetNotificationTTL()})
}

func newADBClient(logger *zap.Logger, cfg *config.AppConfig) *executor.ADBClient {
	return executor.NewADBClient(logger, cfg.GetADBPath())
}

func newLauncher(logger *zap.Logger, cfg *config.AppConfig) *executor.Launcher {
	return executor.NewLauncher(logger, cfg.GetScrcpyPath())
}

func newCommander(logger *zap.Logger, adb *executor.ADBClient, launcher *executor.Launcher, cfg *config.AppConfig) *executor.Commander {
	return executor.NewCommander(logger, adb, launcher, cfg.GetCommandTimeout())
}

func newEngine(
	logger *zap.Logger,
	st *store.Store,
	commander domain.Commander,
	thumbnailer domain.Thumbnailer,
	cfg *config.AppConfig,
) *engine.Engine {
	return engine.NewEngine(logger, st, commander, thumbnailer, engine.Options{
		DataDir:         cfg.GetDataDir(),
		RefreshInterval: cfg.GetRefreshInterval(),
	})
}

func newHandler(
	logger *zap.Logger,
	st *store.Store,
	eng *engine.Engine,
	locale domain.LocaleStore,
	res *domain.ScreenResolution,
) *api.Handler {
	return api.NewHandler(logger, st, eng, locale, res)
}

func newOriginPolicy(logger *zap.Logger, cfg *config.AppConfig) *api.OriginPolicy {
	return api.NewOriginPolicy(logger, cfg.GetAllowedOrigins())
}

func newRouter(logger *zap.Logger, h *api.Handler, hub *api.Hub, origins *api.OriginPolicy) *gin.Engine {
	if !debugEnabled() {
		gin.SetMode(gin.ReleaseMode)
	}
	return api.NewRouter(logger, h, hub, origins)
}

func newNotifier(logger *zap.Logger, st *store.Store, cfg *config.AppConfig) *notify.DesktopNotifier {
	return notify.NewDesktopNotifier(logger, st, cfg.GetNotificationTTL())
}

// registerHooks sets up application lifecycle hooks
func registerHooks(
	lc fx.Lifecycle,
	logger *zap.Logger,
	db *persist.SQLiteStore,
	st *store.Store,
	launcher *executor.Launcher,
	eng *engine.Engine,
	srv *api.Server,
	notifier *notify.DesktopNotifier,
) {
	// Hooks stop in reverse order: engine, server, notifier, scrcpy, storage
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down")
			st.Close()
			err := db.Close()
			_ = logger.Sync()
			return err
		},
	})
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopped, err := launcher.Stop()
			if stopped && err == nil {
				logger.Info("Stopped running scrcpy on shutdown")
			}
			return err
		},
	})
	lc.Append(fx.Hook{
		OnStart: notifier.Start,
		OnStop:  notifier.Stop,
	})
	lc.Append(fx.Hook{
		OnStart: srv.Start,
		OnStop:  srv.Stop,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := eng.Start(ctx); err != nil {
				return err
			}
			logger.Info("mirrorctl daemon started",
				zap.String("addr", srv.Addr()),
				zap.String("database", db.Path()))
			return nil
		},
		OnStop: eng.Stop,
	})
}
