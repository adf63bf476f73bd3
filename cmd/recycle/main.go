package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"recycle-bot/internal/bot"
	"recycle-bot/internal/config"
	"recycle-bot/internal/materials"
	"recycle-bot/internal/storage"
	redisstore "recycle-bot/internal/storage/redis"
	"recycle-bot/pkg/logger"
	"recycle-bot/pkg/redis"
)

// ENTRY POINT

func main() {
	migrate := flag.String("migrate", "", "run migration command (up, down, status) and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Инициализация логгера
	zapLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = zapLogger.Sync() }()

	if *migrate != "" {
		if err := runMigrate(cfg, zapLogger, *migrate); err != nil {
			zapLogger.Fatal("Migration failed", zap.Error(err))
		}
		return
	}

	if err := run(cfg, zapLogger); err != nil {
		zapLogger.Fatal("Bot stopped with error", zap.Error(err))
	}
	zapLogger.Info("Bot shutdown gracefully")
}

func run(cfg *config.Config, zapLogger *zap.Logger) error {
	// Обработка сигналов завершения
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	catalog := materials.Default()
	if cfg.MaterialsFile != "" {
		loaded, err := materials.Load(cfg.MaterialsFile)
		if err != nil {
			return fmt.Errorf("load materials: %w", err)
		}
		catalog = loaded
	}
	zapLogger.Info("Material catalog loaded", zap.Int("materials", len(catalog.Materials())))

	// Инициализация PostgreSQL хранилища
	pgStorage, err := storage.NewPostgresStorage(ctx, cfg.Postgres(), zapLogger)
	if err != nil {
		return fmt.Errorf("init postgres: %w", err)
	}
	defer func() { _ = pgStorage.Close() }()

	if cfg.MigrateOnStart {
		if err := storage.RunMigrations(ctx, pgStorage.DB(), zapLogger); err != nil {
			return err
		}
	}

	// Инициализация Redis клиента
	redisClient := redis.New(cfg.Redis())
	defer func() { _ = redisClient.Close() }()
	if err := waitForRedis(ctx, redisClient, zapLogger); err != nil {
		return err
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("failed to create bot API: %w", err)
	}
	api.Debug = cfg.TelegramDebug
	zapLogger.Info("Bot authorized",
		zap.String("username", api.Self.UserName),
		zap.Int64("id", api.Self.ID))

	// Создание бота
	tgBot := bot.New(
		api,
		pgStorage,
		redisstore.New(redisClient, cfg.SessionTTL, zapLogger),
		catalog,
		bot.NewAllowList(cfg.AdminIDs, cfg.DriverIDs),
		zapLogger,
		bot.Options{
			AdminIDs:        cfg.AdminIDs,
			AdminPhone:      cfg.AdminPhone,
			ReportChunkSize: cfg.ReportChunkSize,
		},
	)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()

	// Запуск бота
	return tgBot.Start(ctx, updates)
}

func runMigrate(cfg *config.Config, zapLogger *zap.Logger, command string) error {
	ctx := context.Background()

	pgStorage, err := storage.NewPostgresStorage(ctx, cfg.Postgres(), zapLogger)
	if err != nil {
		return fmt.Errorf("init postgres: %w", err)
	}
	defer func() { _ = pgStorage.Close() }()

	switch command {
	case "up":
		return storage.RunMigrations(ctx, pgStorage.DB(), zapLogger)
	case "down":
		return storage.RollbackMigration(ctx, pgStorage.DB(), zapLogger)
	case "status":
		return storage.MigrationStatus(ctx, pgStorage.DB(), zapLogger)
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
}

func waitForRedis(ctx context.Context, client *redis.Client, zapLogger *zap.Logger) error {
	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = time.Minute

	err := backoff.RetryNotify(
		func() error { return client.Ping(ctx) },
		backoff.WithContext(retryPolicy, ctx),
		func(err error, next time.Duration) {
			zapLogger.Warn("Redis is not ready, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", next))
		},
	)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	return nil
}
