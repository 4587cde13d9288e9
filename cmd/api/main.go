package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/alumnet/alumnet-backend/internal/config"
	"github.com/alumnet/alumnet-backend/internal/handler"
	"github.com/alumnet/alumnet-backend/internal/middleware"
	"github.com/alumnet/alumnet-backend/internal/migration"
	"github.com/alumnet/alumnet-backend/internal/notifier"
	"github.com/alumnet/alumnet-backend/internal/repository"
	"github.com/alumnet/alumnet-backend/internal/routes"
	"github.com/alumnet/alumnet-backend/internal/service"
	"github.com/alumnet/alumnet-backend/internal/ws"
	"github.com/alumnet/alumnet-backend/pkg/jwt"
	pkglogger "github.com/alumnet/alumnet-backend/pkg/logger"
	pkgredis "github.com/alumnet/alumnet-backend/pkg/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	dotenvFiles := config.LoadDotEnv()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.Init(env)
	pkglogger.Get().Info().
		Str("env", env).
		Strs("dotenv_files", dotenvFiles).
		Msg("starting alumnet-backend")

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := migration.Run(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	pkglogger.Get().Info().Msg("connected to MySQL")

	// Redis is optional: without it the hub still serves local clients.
	redisClient, err := pkgredis.NewClient(
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
	)
	if err != nil {
		pkglogger.Get().Warn().Err(err).Msg("Redis unavailable, realtime fan-out is single-instance")
		redisClient = nil
	}

	// Kafka is optional: a nil producer drops intents after persisting them.
	producer := notifier.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if producer == nil {
		pkglogger.Get().Warn().Msg("Kafka not configured, notification intents stay local")
	} else {
		defer producer.Close() //nolint:errcheck
	}

	hub := ws.NewHub(redisClient)
	go hub.Run()
	defer hub.Stop()

	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTTLSec)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	requestRepo := repository.NewMentorshipRepository(db)
	blockRepo := repository.NewBlockRepository(db)
	convRepo := repository.NewConversationRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Services
	notificationSvc := service.NewNotificationService(notificationRepo, producer)
	moderationSvc := service.NewModerationService(blockRepo, userRepo)
	mentorshipSvc := service.NewMentorshipService(db, requestRepo, convRepo, userRepo, moderationSvc, notificationSvc)
	conversationSvc := service.NewConversationService(db, convRepo, userRepo, moderationSvc, notificationSvc, hub)

	// Handlers
	mentorshipHandler := handler.NewMentorshipHandler(mentorshipSvc)
	moderationHandler := handler.NewModerationHandler(moderationSvc)
	conversationHandler := handler.NewConversationHandler(conversationSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	wsHandler := handler.NewWSHandler(hub, cfg.CORS.AllowOrigins)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		ExposeHeaders:    []string{"X-Request-ID"},
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	routes.Setup(router, mentorshipHandler, moderationHandler, conversationHandler, notificationHandler, wsHandler, jwtManager)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	pkglogger.Get().Info().Str("addr", addr).Msg("listening")
	if err := router.Run(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// initDB opens the MySQL connection and configures the pool
func initDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		// duplicate-key violations become gorm.ErrDuplicatedKey; the
		// services rely on that as the conflict signal
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	return db, nil
}
