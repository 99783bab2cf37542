package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/config"
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/gateway"
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/cache"
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/handler"
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/notify"
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/service"
	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/middleware"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting mes-gate service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	rdb := initRedis(cfg.Redis)

	// The procedure host owns all tables and business rules; this service
	// only invokes, so there is no migration step here.
	invoker := gateway.NewPostgresInvoker(db)
	gw := gateway.NewClient(invoker)

	hub := notify.NewHub(zapLogger)
	notifier := notify.NewNotifier(hub, rdb, zapLogger)

	cfgCache := cache.NewAutomationCache(gw.GetAutomationConfig, cfg.Automation.CacheTTL, nil)
	notifier.SetConfigRefreshHook(cfgCache.Invalidate)

	opSvc := service.NewOperationService(gw, notifier, zapLogger)
	inspSvc := service.NewInspectionService(gw, opSvc, notifier, zapLogger)
	transferSvc := service.NewTransferService(gw, opSvc, notifier, zapLogger)
	overviewSvc := service.NewOverviewService(gw, cfgCache, zapLogger)
	automationSvc := service.NewAutomationService(gw, cfgCache, notifier)

	handlers := handler.NewHandlers(opSvc, inspSvc, transferSvc, overviewSvc, automationSvc, hub)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers, cfg)

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:     router,
		ReadTimeout: cfg.Server.ReadTimeout,
		// Write timeout stays off for SSE long-lived connections.
		WriteTimeout: 0,
	}

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go notifier.Run(runCtx)

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exited")
}

func registerRoutes(router *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": Version})
	})

	api := router.Group("/api/v1", middleware.JWTAuth(cfg.JWT.Secret))

	orders := api.Group("/orders/:orderId")
	{
		orders.GET("/operations", h.Operation.List)
		orders.POST("/operations/:id/transition", h.Operation.Transition)
		orders.POST("/operations/:id/appointments", h.Operation.ReportAppointment)
		orders.POST("/operations/:id/transfer", h.Operation.Transfer)
		orders.GET("/operations/:id/transfer-proposal", h.Operation.TransferProposal)
		orders.GET("/operations/:id/inspection-defaults", h.Inspection.Defaults)
		orders.PUT("/operations/:id/qa-requirements", h.Inspection.ToggleRequirement)
	}

	api.GET("/operations/:id/inspections", h.Inspection.History)
	api.POST("/operations/:id/inspections", h.Inspection.Submit)

	api.GET("/shop-floor/overview", h.Overview.Overview)
	api.GET("/shop-floor/overview/export", h.Overview.Export)

	api.GET("/automation-config", h.Automation.Get)
	api.PUT("/automation-config", h.Automation.Save)

	api.GET("/events", h.Events.Stream)
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	if cfg.Host == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}
