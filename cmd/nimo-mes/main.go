package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitfantasy/nimo-mes/internal/config"
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/handler"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/bitfantasy/nimo-mes/internal/middleware"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 本地开发加载 .env
	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting nimo-mes service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := entity.AutoMigrate(db); err != nil {
		zapLogger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// 初始化Redis
	rdb := initRedis(cfg.Redis)

	// 初始化依赖
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, db, rdb)
	handlers := handler.NewHandlers(services)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// 注册路由
	registerRoutes(router, handlers, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	// TranslateError 让唯一索引冲突映射为 gorm.ErrDuplicatedKey，编号重试依赖它。
	// 可选外键列允许空值，不建数据库级外键约束。
	gormConfig := &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Info),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

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

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// API v1
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		// 工单
		workOrders := v1.Group("/work-orders")
		{
			workOrders.GET("", h.WorkOrder.List)
			workOrders.POST("", h.WorkOrder.Create)
			workOrders.GET("/:id", h.WorkOrder.Get)
			workOrders.PUT("/:id", h.WorkOrder.Update)
			workOrders.DELETE("/:id", h.WorkOrder.Delete)
			workOrders.POST("/:id/release", h.WorkOrder.Release)
			workOrders.POST("/:id/start", h.WorkOrder.Start)
			workOrders.POST("/:id/complete", h.WorkOrder.Complete)
			workOrders.POST("/:id/cancel", h.WorkOrder.Cancel)
			workOrders.POST("/:id/generate-operations", h.WorkOrder.GenerateOperations)
		}

		// 报工
		reports := v1.Group("/work-reports")
		{
			reports.GET("", h.Report.List)
			reports.POST("", h.Report.Create)
			reports.GET("/:id", h.Report.Get)
		}

		// 在制品追溯
		wip := v1.Group("/wip-tracking")
		{
			wip.GET("", h.Report.ListWIP)
			wip.POST("", h.Report.CreateWIP)
			wip.GET("/:id", h.Report.GetWIP)
			wip.PUT("/:id", h.Report.UpdateWIP)
			wip.GET("/batch/:batchNumber", h.Report.TraceByBatch)
			wip.GET("/serial/:serialNumber", h.Report.TraceBySerial)
		}

		// 排程
		schedule := v1.Group("/schedule")
		{
			schedule.POST("/run", h.Schedule.Run)
			schedule.GET("", h.Schedule.Latest)
		}

		// 库存
		inventory := v1.Group("/inventory")
		{
			inventory.GET("", h.Inventory.List)
			inventory.GET("/summary/warehouse", h.Inventory.SummaryByWarehouse)
			inventory.GET("/summary/material", h.Inventory.SummaryByMaterial)
			inventory.GET("/export", h.Inventory.Export)
			inventory.GET("/:id", h.Inventory.Get)
			inventory.PUT("/:id", h.Inventory.Update)
		}

		// 物料事务
		transactions := v1.Group("/material-transactions")
		{
			transactions.GET("", h.Inventory.ListTransactions)
			transactions.POST("", h.Inventory.CreateTransaction)
		}

		// 领料单
		picks := v1.Group("/material-picks")
		{
			picks.GET("", h.Pick.List)
			picks.POST("", h.Pick.Create)
			picks.POST("/bom", h.Pick.CreateFromBOM)
			picks.GET("/:id", h.Pick.Get)
			picks.POST("/:id/confirm", h.Pick.Confirm)
			picks.POST("/:id/complete", h.Pick.Complete)
			picks.POST("/:id/cancel", h.Pick.Cancel)
		}

		// 退料
		v1.POST("/material-returns", h.Inventory.CreateReturn)

		// 基础数据
		materials := v1.Group("/materials")
		{
			materials.GET("", h.Master.ListMaterials)
			materials.POST("", h.Master.CreateMaterial)
			materials.GET("/:id", h.Master.GetMaterial)
		}

		boms := v1.Group("/boms")
		{
			boms.GET("", h.Master.ListBOMs)
			boms.POST("", h.Master.CreateBOM)
			boms.GET("/:id", h.Master.GetBOM)
			boms.PUT("/:id", h.Master.UpdateBOM)
			boms.GET("/:id/explode", h.Master.ExplodeBOM)
		}

		routings := v1.Group("/routings")
		{
			routings.GET("", h.Master.ListRoutings)
			routings.POST("", h.Master.CreateRouting)
			routings.GET("/:id", h.Master.GetRouting)
			routings.PUT("/:id", h.Master.UpdateRouting)
			routings.GET("/:id/explode", h.Master.ExplodeRouting)
		}

		warehouses := v1.Group("/warehouses")
		{
			warehouses.GET("", h.Master.ListWarehouses)
			warehouses.POST("", h.Master.CreateWarehouse)
		}

		equipment := v1.Group("/equipment")
		{
			equipment.GET("", h.Master.ListEquipment)
			equipment.POST("", h.Master.CreateEquipment)
		}

		operations := v1.Group("/operations")
		{
			operations.GET("", h.Master.ListOperations)
			operations.POST("", h.Master.CreateOperation)
		}

		tooling := v1.Group("/tooling")
		{
			tooling.GET("", h.Master.ListTooling)
			tooling.POST("", h.Master.CreateTooling)
		}

		personnel := v1.Group("/personnel")
		{
			personnel.GET("", h.Master.ListPersonnel)
			personnel.POST("", h.Master.CreatePersonnel)
		}

		shifts := v1.Group("/shifts")
		{
			shifts.GET("", h.Master.ListShifts)
			shifts.POST("", h.Master.CreateShift)
		}

		uoms := v1.Group("/uoms")
		{
			uoms.GET("", h.Master.ListUOMs)
			uoms.POST("", h.Master.CreateUOM)
		}
	}
}
