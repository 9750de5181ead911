package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/zaptalkhq/zaptalk/internal/config"
	"github.com/zaptalkhq/zaptalk/internal/connection"
	"github.com/zaptalkhq/zaptalk/internal/conversation"
	"github.com/zaptalkhq/zaptalk/internal/db"
	"github.com/zaptalkhq/zaptalk/internal/handlers"
	"github.com/zaptalkhq/zaptalk/internal/inbound"
	"github.com/zaptalkhq/zaptalk/internal/logger"
	"github.com/zaptalkhq/zaptalk/internal/media"
	"github.com/zaptalkhq/zaptalk/internal/message"
	"github.com/zaptalkhq/zaptalk/internal/server"
	"github.com/zaptalkhq/zaptalk/internal/storage"
	"github.com/zaptalkhq/zaptalk/internal/storage/providers/localfs"
	"github.com/zaptalkhq/zaptalk/internal/version"
	"github.com/zaptalkhq/zaptalk/internal/wagateway"
)

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDBConn,
			provideStorageProvider,
			provideGatewayClient,
			provideMediaCache,
			provideWorkerPool,
			provideEventRing,
			connection.NewRepository,
			conversation.NewRepository,
			provideConversationService,
			message.NewRepository,
			provideMessageService,
			provideProcessor,
			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(handlers.NewWAWebhookHandler),
			provideServerHandler(handlers.NewWAEventsHandler),
			provideServer,
		),
		fx.Invoke(
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.Postgres); err != nil {
		return nil, fmt.Errorf("db migrate: %w", err)
	}
	conn, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { conn.Close(); return nil }})
	return conn, nil
}

func provideStorageProvider(cfg config.Config) (storage.Provider, error) {
	provider, err := localfs.New(cfg.Storage.MediaRoot, cfg.Storage.PublicBase)
	if err != nil {
		return nil, fmt.Errorf("init media storage: %w", err)
	}
	return provider, nil
}

func provideGatewayClient(log *slog.Logger, cfg config.Config) *wagateway.Client {
	timeout := time.Duration(cfg.Gateway.TimeoutSeconds) * time.Second
	return wagateway.NewClient(log, cfg.Gateway.BaseURL, timeout)
}

func provideMediaCache(log *slog.Logger, provider storage.Provider, gateway *wagateway.Client, cfg config.Config) *media.Cache {
	return media.NewCache(log, provider, gateway, cfg.Storage.MaxBytes)
}

func provideWorkerPool(lc fx.Lifecycle, log *slog.Logger, cfg config.Config) *media.WorkerPool {
	pool := media.NewWorkerPool(log, cfg.Ingest.Workers, cfg.Ingest.QueueSize)
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { return pool.Shutdown(ctx) }})
	return pool
}

func provideEventRing(cfg config.Config) *inbound.Ring {
	return inbound.NewRing(cfg.Ingest.RingSize)
}

func provideConversationService(log *slog.Logger, repo conversation.Repository) *conversation.Service {
	return conversation.NewService(log, repo)
}

func provideMessageService(log *slog.Logger, repo message.Repository, cfg config.Config) *message.Service {
	window := time.Duration(cfg.Ingest.PlaceholderWindowSeconds) * time.Second
	return message.NewService(log, repo, window)
}

func provideProcessor(
	log *slog.Logger,
	connections connection.Repository,
	conversations *conversation.Service,
	messages *message.Service,
	cache *media.Cache,
	pool *media.WorkerPool,
	ring *inbound.Ring,
	cfg config.Config,
) *inbound.Processor {
	eagerTimeout := time.Duration(cfg.Ingest.EagerTimeoutSeconds) * time.Second
	return inbound.NewProcessor(log, connections, conversations, messages, cache, pool, ring, eagerTimeout)
}

type serverParams struct {
	fx.In
	Logger         *slog.Logger
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.Config.Server.Addr, params.Config.Auth.JWTSecret, params.ServerHandlers)
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	fmt.Printf("Starting ZapTalk %s\n", version.GetInfo())
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
