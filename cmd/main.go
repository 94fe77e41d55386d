package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/cache"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/config"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/handler"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/hub"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/kafka"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/metrics"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/moderation"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/repository"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/service"
	"github.com/weiawesome/wes-io-live/moderated-chat/pkg/id"
	"github.com/weiawesome/wes-io-live/moderated-chat/pkg/jwt"
	pkglog "github.com/weiawesome/wes-io-live/moderated-chat/pkg/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty || cfg.Log.Level == "debug",
		ServiceName: cfg.Log.ServiceName,
	})
	logger := pkglog.L()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	// History store
	repo, err := newRepository(cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.History.Driver).Msg("failed to create history store")
	}
	defer repo.Close()
	logger.Info().Str("driver", cfg.History.Driver).Msg("history store ready")

	// Optional Redis cache in front of the store
	var historyCache cache.HistoryCache
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedisHistoryCache(cfg.Redis, cfg.Cache.Prefix)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisCache.Close()
		historyCache = redisCache
		logger.Info().Str("address", cfg.Redis.Address).Msg("redis cache connected")
	}

	// Optional event stream
	var publisher kafka.MessagePublisher = kafka.NoopPublisher{}
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewConfluentProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Partitions)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize kafka producer")
		}
		publisher = producer
		logger.Info().Str("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka producer ready")
	}

	classifier, err := newClassifier(ctx, cfg.Moderation)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create moderation classifier")
	}
	moderator := moderation.NewClient(classifier, cfg.Moderation.Timeout)

	wsHub := hub.NewHub()
	wsHub.OnSlowConsumer(func(*hub.Client) { m.SlowConsumer() })

	historySvc := service.NewHistoryService(repo, historyCache, cfg.Cache.TTL, m)
	chatSvc := service.NewChatService(wsHub, moderator, historySvc, publisher, id.NewULIDGenerator(), m, cfg.History.Limit)

	var verifier *jwt.Verifier
	if cfg.Auth.JWTSecret != "" {
		verifier = jwt.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
		logger.Info().Msg("websocket handshake authentication enabled")
	}

	// Setup Gin router
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(pkglog.GinMiddleware(logger))

	handler.NewHTTPHandler(historySvc, wsHub, m, cfg.History.Limit).RegisterRoutes(router)
	handler.NewWSHandler(wsHub, chatSvc, cfg.WebSocket, verifier).RegisterRoutes(router)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("moderated chat server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	// Hijacked websocket connections are not tracked by the http server.
	closed := wsHub.CloseAll()
	logger.Info().Int("connections", closed).Msg("closed websocket connections")

	done := make(chan struct{})
	go func() {
		chatSvc.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn().Msg("in-flight messages abandoned at shutdown")
	}

	if err := publisher.Close(); err != nil {
		logger.Error().Err(err).Msg("failed to close kafka producer")
	}

	logger.Info().Msg("server exited")
}

func newRepository(cfg *config.Config) (repository.MessageRepository, error) {
	switch cfg.History.Driver {
	case "cassandra":
		return repository.NewCassandraMessageRepository(cfg.Cassandra)
	case "memory", "":
		return repository.NewMemoryMessageRepository(), nil
	default:
		return nil, fmt.Errorf("unknown history driver %q", cfg.History.Driver)
	}
}

// newClassifier picks the moderation provider. A nil classifier is valid and
// labels every message as an error.
func newClassifier(ctx context.Context, cfg config.ModerationConfig) (moderation.Classifier, error) {
	logger := pkglog.L()

	switch cfg.Provider {
	case "gemini", "":
		if cfg.APIKey != "" {
			logger.Info().Str("model", cfg.Model).Msg("using gemini moderation")
			return moderation.NewGeminiClassifier(ctx, cfg.APIKey, cfg.Model)
		}
		if len(cfg.Wordlist) == 0 {
			logger.Warn().Msg("no gemini api key and no wordlist, messages will be labelled error")
			return nil, nil
		}
		logger.Warn().Msg("no gemini api key, falling back to wordlist moderation")
		return moderation.NewWordlistClassifier(cfg.Wordlist)
	case "wordlist":
		logger.Info().Int("terms", len(cfg.Wordlist)).Msg("using wordlist moderation")
		return moderation.NewWordlistClassifier(cfg.Wordlist)
	default:
		return nil, fmt.Errorf("unknown moderation provider %q", cfg.Provider)
	}
}
