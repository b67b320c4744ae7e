package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"betinsight-service/apifootball"
	"betinsight-service/config"
	"betinsight-service/database"
	"betinsight-service/logger"
	"betinsight-service/prediction"
	"betinsight-service/services"
	"betinsight-service/web"
)

func main() {
	logger.Println("Starting BetInsight Service...")

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.SetDebug(cfg.IsDevelopment())

	location, err := cfg.Location()
	if err != nil {
		logger.Fatalf("Invalid timezone: %v", err)
	}

	if cfg.APIFootballKey == "" {
		logger.Warnf("API_FOOTBALL_KEY is not set, upstream requests will be rejected")
	}

	// 创建 Feishu 通知器
	larkNotifier := services.NewLarkNotifier(cfg.LarkWebhook)

	// 缓存: 配置了 Redis 就用 Redis, 否则用内存
	cache, closeCache := newCache(cfg)
	defer closeCache()

	client := apifootball.NewClientWithConfig(apifootball.Config{
		BaseURL: cfg.APIFootballBaseURL,
		APIKey:  cfg.APIFootballKey,
		Host:    cfg.APIFootballHost,
		Timeout: cfg.APITimeout,
	})

	dashboard := services.NewDashboardService(client, cache, prediction.NewClassifier(cfg.Thresholds()), larkNotifier)
	dashboard.SetLocation(location)

	// 预测快照存储 (可选)
	if cfg.DatabaseURL != "" {
		db := connectDatabase(cfg.DatabaseURL)
		defer db.Close()
		dashboard.SetStore(services.NewPredictionStore(db))
	} else {
		logger.Println("DATABASE_URL not set, prediction history disabled")
	}

	broker, err := newBroker(cfg)
	if err != nil {
		logger.Fatalf("Failed to create %s broker: %v", cfg.BrokerType, err)
	}
	defer broker.Close()
	dashboard.SetBroker(broker)

	// 创建WebSocket Hub
	wsHub := web.NewHub()
	go wsHub.Run()

	events, err := broker.Consume(services.GetTopicName(services.EventHighConfidence))
	if err != nil {
		logger.Fatalf("Failed to subscribe to prediction events: %v", err)
	}
	go wsHub.ConsumeEvents(events)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poller := services.NewFixturePoller(dashboard, wsHub, cfg.LiveRefreshInterval, cfg.UpcomingRefreshInterval)
	go poller.Start(ctx)

	// 启动Web服务器
	server := web.NewServer(cfg, dashboard, poller, wsHub)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			larkNotifier.NotifyError("Web Server", err.Error())
			logger.Fatalf("Web server error: %v", err)
		}
	}()

	if err := larkNotifier.NotifyServiceStart(cfg.Environment, cfg.LiveRefreshInterval, cfg.UpcomingRefreshInterval); err != nil {
		logger.Errorf("Failed to send startup notification: %v", err)
	}

	logger.Println("Service is running. Press Ctrl+C to stop.")

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Println("Shutting down service...")

	cancel()
	server.Stop()

	logger.Println("Service stopped")
}

func newCache(cfg *config.Config) (*services.QueryCache, func()) {
	if cfg.RedisAddr != "" {
		backend := services.NewRedisBackend(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := backend.Ping(ctx)
		if err == nil {
			logger.Printf("Using Redis cache at %s", cfg.RedisAddr)
			return services.NewQueryCache(backend, cfg.CacheTTL), func() { backend.Close() }
		}
		logger.Warnf("Redis unavailable (%v), falling back to in-memory cache", err)
		backend.Close()
	}

	backend := services.NewMemoryBackend(time.Minute)
	return services.NewQueryCache(backend, cfg.CacheTTL), backend.Close
}

func connectDatabase(url string) *sql.DB {
	db, err := database.Connect(url)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// 运行数据库迁移
	if err := database.Migrate(db); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	logger.Println("Database connected and migrated")
	return db
}

func newBroker(cfg *config.Config) (services.MessageBroker, error) {
	switch cfg.BrokerType {
	case "amqp":
		return services.NewAMQPBroker(cfg.AMQPURL, cfg.AMQPExchange)
	case "mqtt":
		return services.NewMQTTBroker(cfg.MQTTBroker, cfg.MQTTTopicPrefix)
	default:
		return services.NewInMemoryBroker(), nil
	}
}
