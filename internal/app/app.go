package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/syncroom/server/internal/controller"
	"github.com/syncroom/server/internal/repository/connection/inmemory"
	roomRedis "github.com/syncroom/server/internal/repository/room/redis"
	"github.com/syncroom/server/internal/service/room"
	"github.com/syncroom/server/pkg/ctxlogger"
	"github.com/syncroom/server/pkg/redisclient"
)

type AppConfig struct {
	Host            string  `json:"host"`
	Port            int     `json:"port"`
	LogLevel        string  `json:"log_level"`
	GracePeriodSec  int     `json:"grace_period_sec"`
	ChatLimit       int     `json:"chat_limit"`
	ChatMaxLength   int     `json:"chat_max_length"`
	ChatRateMs      int     `json:"chat_rate_ms"`
	SyncTolerance   float64 `json:"sync_tolerance"`
	DefaultMediaURL string  `json:"default_media_url"`
	DefaultImageURL string  `json:"default_image_url"`
	RedisPort       int     `json:"redis_port"`
	RedisHost       string  `json:"redis_host"`
	RedisPassword   string  `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.GracePeriodSec < 1 {
		return fmt.Errorf("grace period must be greater than 0")
	}
	if cfg.ChatLimit < 1 {
		return fmt.Errorf("chat limit must be greater than 0")
	}
	if cfg.DefaultMediaURL == "" && cfg.DefaultImageURL == "" {
		return fmt.Errorf("a default media or image url must be set")
	}
	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		log.Fatal(err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	logger := slog.New(&h)

	rc, err := redisclient.NewRedisClient(&redisclient.Config{
		Port:     cfg.RedisPort,
		Host:     cfg.RedisHost,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	roomRepo := roomRedis.NewRepo(rc, 24*14*time.Hour)
	connectionRepo := inmemory.NewRepo()
	roomService := room.NewService(roomRepo, connectionRepo, logger, &room.Config{
		GracePeriod:      time.Duration(cfg.GracePeriodSec) * time.Second,
		ChatLimit:        cfg.ChatLimit,
		ChatMaxLength:    cfg.ChatMaxLength,
		ChatRateInterval: time.Duration(cfg.ChatRateMs) * time.Millisecond,
		SyncTolerance:    cfg.SyncTolerance,
		DefaultMediaURL:  cfg.DefaultMediaURL,
		DefaultImageURL:  cfg.DefaultImageURL,
	})
	controller := controller.NewController(roomService, logger)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: controller.GetMux()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
