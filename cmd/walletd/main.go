package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	auditinfra "github.com/mwangaza/sharewallet/internal/audit/infrastructure"
	exchangeapp "github.com/mwangaza/sharewallet/internal/exchange/application"
	exchangeinfra "github.com/mwangaza/sharewallet/internal/exchange/infrastructure"
	exchangehttp "github.com/mwangaza/sharewallet/internal/exchange/interfaces/http"
	feeapp "github.com/mwangaza/sharewallet/internal/fee/application"
	feeinfra "github.com/mwangaza/sharewallet/internal/fee/infrastructure"
	feehttp "github.com/mwangaza/sharewallet/internal/fee/interfaces/http"
	limitapp "github.com/mwangaza/sharewallet/internal/limit/application"
	limitinfra "github.com/mwangaza/sharewallet/internal/limit/infrastructure"
	limithttp "github.com/mwangaza/sharewallet/internal/limit/interfaces/http"
	profileinfra "github.com/mwangaza/sharewallet/internal/profile/infrastructure"
	walletapp "github.com/mwangaza/sharewallet/internal/wallet/application"
	walletdomain "github.com/mwangaza/sharewallet/internal/wallet/domain"
	walletinfra "github.com/mwangaza/sharewallet/internal/wallet/infrastructure"
	wallethttp "github.com/mwangaza/sharewallet/internal/wallet/interfaces/http"
	"github.com/mwangaza/sharewallet/pkg/cache"
	"github.com/mwangaza/sharewallet/pkg/config"
	"github.com/mwangaza/sharewallet/pkg/db"
	"github.com/mwangaza/sharewallet/pkg/logger"
	"github.com/mwangaza/sharewallet/pkg/metrics"
	"github.com/mwangaza/sharewallet/pkg/middleware"
	"github.com/mwangaza/sharewallet/pkg/mq"
)

var configPath = flag.String("config", "configs/walletd/config.toml", "config file path")

func main() {
	flag.Parse()

	// 1. 初始化配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. 初始化日志
	if err := logger.Init(cfg.Logger); err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	ctx := context.Background()

	// 3. 初始化指标
	m := metrics.New(cfg.ServiceName)
	if cfg.Metrics.Enabled {
		go m.ExposeHTTP(cfg.Metrics.Port)
	}

	// 4. 初始化基础设施
	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to connect database", "error", err)
	}
	defer database.Close()

	// Auto Migrate (仅用于开发方便)
	if cfg.Environment == "dev" {
		if err := database.AutoMigrate(
			&walletdomain.Wallet{},
			&walletdomain.Transaction{},
			&feeinfra.SchedulePO{},
			&limitinfra.DefinitionPO{},
			&limitinfra.ShareHoldingPO{},
			&exchangeinfra.RatePO{},
			&profileinfra.ProfilePO{},
			&auditinfra.EntryPO{},
		); err != nil {
			logger.Error(ctx, "failed to migrate database", "error", err)
		}
	}

	redisCache, err := cache.New(cache.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxPoolSize:  cfg.Redis.MaxPoolSize,
		ConnTimeout:  cfg.Redis.ConnTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init redis", "error", err)
	}
	defer redisCache.Close()

	producer, err := mq.NewProducer(mq.KafkaConfig{
		Brokers:      cfg.Kafka.Brokers,
		MaxRetries:   cfg.Kafka.MaxRetries,
		RetryBackoff: cfg.Kafka.RetryBackoff,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init kafka producer", "error", err)
	}
	defer producer.Close()

	// 5. 初始化仓储
	walletRepo := walletinfra.NewGormWalletRepository(database.DB)
	txRepo := walletinfra.NewGormTransactionRepository(database.DB)
	scheduleRepo := feeinfra.NewGormScheduleRepository(database.DB)
	definitionRepo := limitinfra.NewGormDefinitionRepository(database.DB)
	usageReader := limitinfra.NewGormUsageReader(database.DB)
	holdingReader := limitinfra.NewGormShareHoldingReader(database.DB)
	profileRepo := profileinfra.NewGormProfileRepository(database.DB)
	auditRecorder := auditinfra.NewGormRecorder(database.DB)
	auditPublisher := auditinfra.NewKafkaPublisher(producer, cfg.Kafka.AuditTopic)
	rateRepo := exchangeinfra.NewCachedRateRepository(
		exchangeinfra.NewGormRateRepository(database.DB), redisCache)

	systemDailyCap, err := decimal.NewFromString(cfg.Limits.SystemDailyCap)
	if err != nil {
		logger.Fatal(ctx, "invalid limits.system_daily_cap", "value", cfg.Limits.SystemDailyCap)
	}

	// 6. 初始化应用服务
	transactionSvc := walletapp.NewTransactionService(
		walletRepo, txRepo, scheduleRepo, definitionRepo, usageReader,
		profileRepo, auditRecorder, auditPublisher, database, m, systemDailyCap,
	)
	exchangeSvc := exchangeapp.NewExchangeService(
		rateRepo, walletRepo, txRepo, scheduleRepo, definitionRepo, usageReader,
		profileRepo, auditRecorder, database, m, systemDailyCap,
	)
	limitSvc := limitapp.NewLimitService(definitionRepo, usageReader, holdingReader, profileRepo)
	feeSvc := feeapp.NewFeeService(scheduleRepo)

	// 7. 初始化接口层
	gin.SetMode(gin.ReleaseMode)
	if cfg.Environment == "dev" {
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.Logging(m))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.ServiceName, "version": cfg.Version})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.Auth([]byte(cfg.Auth.JWTSecret)))
	api.Use(middleware.RateLimit(redisCache.Client(), cfg.Limits.RequestsPerMinute))

	wallethttp.NewWalletHandler(transactionSvc, exchangeSvc).RegisterRoutes(api)
	exchangehttp.NewExchangeHandler(exchangeSvc).RegisterRoutes(api)
	limithttp.NewLimitHandler(limitSvc).RegisterRoutes(api)
	feehttp.NewFeeHandler(feeSvc).RegisterRoutes(api)

	// 8. 启动服务
	g, gctx := errgroup.WithContext(ctx)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	g.Go(func() error {
		logger.Info(ctx, "HTTP server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	// 9. 优雅关闭
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			logger.Info(ctx, "shutting down server...")
		case <-gctx.Done():
			logger.Info(ctx, "context cancelled, shutting down...")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(ctx, "server exited with error", "error", err)
		os.Exit(1)
	}
}
