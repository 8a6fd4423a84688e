package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/weiawesome/asg-rev/internal/cache"
	"github.com/weiawesome/asg-rev/internal/domain"
	"github.com/weiawesome/asg-rev/internal/handler"
	"github.com/weiawesome/asg-rev/internal/hub"
	"github.com/weiawesome/asg-rev/internal/kafka"
	"github.com/weiawesome/asg-rev/internal/registry"
	"github.com/weiawesome/asg-rev/internal/repository"
	"github.com/weiawesome/asg-rev/internal/service"
	"github.com/weiawesome/asg-rev/pkg/database"
	"github.com/weiawesome/asg-rev/pkg/jwt"
	pkglog "github.com/weiawesome/asg-rev/pkg/log"
	"github.com/weiawesome/asg-rev/pkg/middleware"
	"github.com/weiawesome/asg-rev/pkg/pubsub"
	"github.com/weiawesome/asg-rev/pkg/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := pkglog.L()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := database.New(cfg.Database.ToDatabase())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.AutoMigrate(db, domain.Models()...); err != nil {
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("database migration completed")

	membershipRepo := repository.NewGormMembershipRepository(db)
	messageRepo := repository.NewGormMessageRepository(db)

	// Redis-backed membership cache and presence registry
	var (
		membershipCache cache.MembershipCache = cache.NopMembershipCache{}
		reg             registry.Registry     = registry.NewMemoryRegistry()
	)
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisMembershipCache(cfg.Redis, cfg.Cache.Prefix)
		if err != nil {
			return fmt.Errorf("failed to connect to redis cache: %w", err)
		}
		defer redisCache.Close()
		membershipCache = redisCache

		redisReg, err := registry.NewRedisRegistry(cfg.Redis, cfg.Presence)
		if err != nil {
			return fmt.Errorf("failed to connect to redis registry: %w", err)
		}
		defer redisReg.Close()
		reg = redisReg
		logger.Info().Str("address", cfg.Redis.Address).Msg("redis connected")
	}

	// Message event stream
	var producer kafka.EventProducer = kafka.NopProducer{}
	if cfg.Kafka.Enabled {
		p, err := kafka.NewConfluentProducer(cfg.Kafka)
		if err != nil {
			return fmt.Errorf("failed to create kafka producer: %w", err)
		}
		defer p.Close()
		producer = p
		logger.Info().Str("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka producer connected")
	}

	// Attachment storage
	blobStore, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Broadcaster: local hub, relayed across instances when a bus is configured
	wsHub := hub.NewHub()
	go wsHub.Run(ctx)

	var broadcaster hub.Broadcaster = wsHub
	if cfg.PubSub.Enabled() {
		bus, err := pubsub.NewPubSub(cfg.PubSub)
		if err != nil {
			return fmt.Errorf("failed to create pubsub: %w", err)
		}
		defer bus.Close()

		relay := hub.NewRelay(wsHub, bus)
		if err := relay.Start(ctx); err != nil {
			return err
		}
		defer relay.Stop()
		broadcaster = relay
		logger.Info().Str("driver", cfg.PubSub.Driver).Msg("cluster relay enabled")
	}

	// Services
	membership := service.NewMembershipAuthority(membershipRepo, membershipCache, cfg.Cache.TTL)
	store := service.NewMessageStore(messageRepo, blobStore, producer, cfg.Chat.MaxFileSize, cfg.Chat.FileURLExpiry)
	chatSvc := service.NewChatService(broadcaster, membership, store, reg, cfg.Chat.InFlightTimeout)
	historySvc := service.NewHistoryService(membership, messageRepo, reg)

	if err := chatSvc.Start(ctx); err != nil {
		return err
	}
	defer chatSvc.Stop()

	// Auth
	jwtManager, err := jwt.NewManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessDuration)
	if err != nil {
		return fmt.Errorf("failed to create jwt manager: %w", err)
	}
	authMiddleware := middleware.NewAuthMiddleware(jwtManager)

	// HTTP
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	handler.NewWSHandler(wsHub, chatSvc, cfg.WebSocket, cfg.Chat.DefaultProtocol).RegisterRoutes(r, authMiddleware)
	handler.NewHTTPHandler(historySvc).RegisterRoutes(r, authMiddleware)
	if local, ok := blobStore.(*storage.LocalStorage); ok && strings.HasPrefix(cfg.Storage.Local.PublicURL, "/") {
		handler.NewMediaHandler(cfg.Storage.Local.PublicURL, local).RegisterRoutes(r)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Str("protocol", cfg.Chat.DefaultProtocol).Msg("chat server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down chat server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("server forced to shutdown")
	}
	// Let each connection run its disconnect path before the presence
	// registry and relay are closed.
	if err := wsHub.Drain(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("clients did not drain before shutdown deadline")
	}
	// Stopping the hub closes any socket that did not drain.
	cancel()

	logger.Info().Msg("chat server stopped")
	return nil
}
