package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/teamgrid/chat-service/internal/api"
	"github.com/teamgrid/chat-service/internal/config"
	"github.com/teamgrid/chat-service/internal/db"
	"github.com/teamgrid/chat-service/internal/events"
	"github.com/teamgrid/chat-service/internal/metrics"
	"github.com/teamgrid/chat-service/internal/observ"
	"github.com/teamgrid/chat-service/internal/repository/postgres"
	"github.com/teamgrid/chat-service/internal/service"
	"github.com/teamgrid/chat-service/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer database.Close()

	chatStore := postgres.NewChatStore(database.Pool())
	membershipStore := postgres.NewMembershipStore(database.Pool())
	messageStore := postgres.NewMessageStore(database.Pool())
	directoryStore := postgres.NewDirectoryStore(database.Pool())

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopicNotification, logger)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		publisher = kafka
	}
	defer publisher.Close()

	m := metrics.New()
	hub := ws.NewHub(cfg.WSPingInterval, cfg.TypingTimeout, m, logger)

	guard := service.NewGuard(chatStore, membershipStore)
	chatService := service.NewChatService(chatStore, membershipStore, messageStore,
		directoryStore, guard, hub, publisher, logger)
	memberService := service.NewMemberService(membershipStore, directoryStore, guard, logger)
	messageService := service.NewMessageService(messageStore, membershipStore,
		directoryStore, guard, hub, publisher, logger)

	hub.Attach(guard, messageService, directoryStore)

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()

		bridge := ws.NewBridge(rdb, hub, logger)
		hub.SetBridge(bridge)
		go bridge.Run(ctx)
		logger.Info("redis broadcast bridge enabled")
	}

	router := api.NewRouter(cfg.Env, api.RouterDeps{
		Chats:     chatService,
		Members:   memberService,
		Messages:  messageService,
		WS:        ws.Handler(hub, cfg.JWTSecret, logger),
		DB:        database,
		Metrics:   m,
		JWTSecret: cfg.JWTSecret,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("chat service listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("forced shutdown", zap.Error(err))
	}
	hub.Close()
	return nil
}
