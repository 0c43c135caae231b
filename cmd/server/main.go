package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ButyrinIA/newsblog/internal/blog"
	"github.com/ButyrinIA/newsblog/internal/config"
	"github.com/ButyrinIA/newsblog/internal/logger"
	"github.com/ButyrinIA/newsblog/internal/persist"
	"github.com/ButyrinIA/newsblog/internal/server"
	"github.com/ButyrinIA/newsblog/internal/storage"
	"github.com/ButyrinIA/newsblog/internal/storage/memory"
	"github.com/ButyrinIA/newsblog/internal/storage/postgres"
	redisstore "github.com/ButyrinIA/newsblog/internal/storage/redis"
	"github.com/ButyrinIA/newsblog/internal/storage/sqlite"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "config.yaml", "путь к файлу конфигурации")
	storageType := flag.String("storage", "", "тип хранилища: memory, sqlite, postgres или redis (перекрывает конфиг)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Не удалось загрузить конфигурацию: %v", err)
	}
	if *storageType != "" {
		cfg.Storage.Type = *storageType
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err := run(cfg, log); err != nil {
		log.Fatal(err)
	}
	log.Info("Сервер остановлен")
}

// run возвращает ошибку вместо Fatal, чтобы отложенное закрытие хранилища выполнялось всегда.
func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("не удалось инициализировать хранилище %s: %w", cfg.Storage.Type, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.WithError(err).Warn("Не удалось закрыть хранилище")
		}
	}()

	controller := blog.New(persist.New(store, cfg.Storage.Key, log), log)
	if err := controller.Initialize(ctx); err != nil {
		return fmt.Errorf("не удалось загрузить новости: %w", err)
	}

	srv := server.New(cfg, controller, log)
	log.WithField("port", cfg.Server.Port).Info("Запуск сервера")
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("не удалось запустить сервер: %w", err)
	}
	return nil
}

func openStorage(ctx context.Context, cfg *config.Config, log *logrus.Logger) (storage.Storage, error) {
	switch cfg.Storage.Type {
	case "memory":
		log.Info("Инициализация хранилища Memory")
		return memory.New(), nil
	case "sqlite":
		log.WithField("path", cfg.SQLite.Path).Info("Инициализация хранилища SQLite")
		return sqlite.New(cfg.SQLite.Path)
	case "postgres":
		log.Info("Инициализация хранилища PostgreSQL")
		return postgres.New(cfg.Postgres.DSN)
	case "redis":
		log.WithField("addr", cfg.Redis.Addr).Info("Инициализация хранилища Redis")
		return redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	default:
		return nil, fmt.Errorf("неизвестный тип хранилища: %s", cfg.Storage.Type)
	}
}
