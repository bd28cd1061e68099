package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"amoita/internal/app/automation"
	"amoita/internal/app/calsync"
	"amoita/internal/app/portfolio"
	"amoita/internal/domain/channel"
	"amoita/internal/infra/broker/kafka"
	"amoita/internal/infra/channelapi"
	"amoita/internal/infra/config"
	"amoita/internal/infra/db/mongo"
	ginserver "amoita/internal/infra/http/gin"
	"amoita/internal/infra/obs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger := obs.NewLogger("dev", "info")
		logger.Error("configuration load failed", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)

	api := buildChannelAPI(cfg, logger)
	audit, auditStore := buildAuditLogger(ctx, cfg, logger)

	syncMgr := calsync.New(api, audit, logger)
	syncMgr.SetDefaultInterval(cfg.SyncInterval)
	autoMgr := automation.New(api, audit, logger)
	if cfg.DeliveryDelay > 0 {
		autoMgr.SetDeliveryDelay(cfg.DeliveryDelay)
	}
	portfolioMgr := portfolio.New(api, audit, logger)

	if len(cfg.KafkaBrokers) > 0 {
		startLifecycleConsumer(ctx, cfg, logger, api, autoMgr, syncMgr)
	}

	statusHandler := ginserver.StatusHandler{API: api, MockMode: cfg.MockMode()}
	if auditStore != nil {
		statusHandler.Audit = auditStore
	}
	handlers := ginserver.Handlers{
		Calendar:  ginserver.CalendarHandler{Sync: syncMgr},
		Messaging: ginserver.MessagingHandler{Automation: autoMgr, API: api},
		Property:  ginserver.PropertyHandler{Portfolio: portfolioMgr},
		Status:    statusHandler,
	}
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: func() error { return api.Health(context.Background()) },
	}, handlers)

	go func() {
		<-ctx.Done()
		syncMgr.Close()
		autoMgr.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "mock_mode", cfg.MockMode())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

func buildChannelAPI(cfg config.Config, logger *slog.Logger) channel.API {
	if cfg.MockMode() {
		logger.Info("channel API running in mock mode")
		return channelapi.NewMock()
	}
	client, err := channelapi.New(channelapi.Options{
		BaseURL:     cfg.ChannelAPIBaseURL,
		AccessToken: cfg.ChannelAPIToken,
		APISecret:   cfg.ChannelAPISecret,
		Timeout:     cfg.ChannelAPITimeout,
		Logger:      logger,
	})
	if err != nil {
		logger.Warn("channel API client init failed, falling back to mock", "error", err)
		return channelapi.NewMock()
	}
	return client
}

func buildAuditLogger(ctx context.Context, cfg config.Config, logger *slog.Logger) (*obs.AuditLogger, *mongo.AuditStore) {
	audit := &obs.AuditLogger{Logger: logger}
	var sinks obs.MultiStore
	var auditStore *mongo.AuditStore

	if cfg.MongoURI != "" {
		client, err := mongo.New(cfg.MongoURI, cfg.MongoDB, cfg.MongoTimeout)
		if err != nil {
			logger.Warn("mongo connect failed, audit persistence disabled", "error", err)
		} else {
			store := mongo.NewAuditStore(client.DB)
			if err := store.EnsureIndexes(ctx, 90*24*time.Hour); err != nil {
				logger.Warn("audit index creation failed", "error", err)
			}
			auditStore = store
			sinks = append(sinks, store)
		}
	}

	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopicAudit != "" {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			logger.Warn("kafka producer init failed, audit fan-out disabled", "error", err)
		} else {
			sinks = append(sinks, &kafka.AuditPublisher{Producer: producer, Topic: cfg.KafkaTopicAudit})
		}
	}

	switch len(sinks) {
	case 0:
	case 1:
		audit.Store = sinks[0]
	default:
		audit.Store = sinks
	}
	return audit, auditStore
}

func startLifecycleConsumer(ctx context.Context, cfg config.Config, logger *slog.Logger, api channel.API, autoMgr *automation.Manager, syncMgr *calsync.Manager) {
	handler := &kafka.LifecycleHandler{
		API:        api,
		Automation: autoMgr,
		Resync: func(ctx context.Context, propertyID string) {
			syncMgr.SyncCalendar(ctx, propertyID, nil)
		},
		Logger: logger,
	}
	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, cfg.KafkaVersion, logger, handler)
	if err != nil {
		logger.Warn("kafka consumer init failed, lifecycle ingestion disabled", "error", err)
		return
	}
	go func() {
		defer consumer.Close()
		if err := consumer.Run(ctx, []string{cfg.KafkaTopic}); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("kafka consumer stopped", "error", err)
		}
	}()
	logger.Info("lifecycle consumer started", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
}
