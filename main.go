package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"jee-solver/config"
	_ "jee-solver/docs"
	"jee-solver/internal/client"
	"jee-solver/internal/constants"
	"jee-solver/internal/handlers"
	"jee-solver/internal/middleware"
	"jee-solver/internal/questionbank"
	"jee-solver/internal/repository"
	"jee-solver/internal/service"
	"jee-solver/internal/session"
	ws "jee-solver/internal/websocket"
	"jee-solver/pkg/cache"
	"jee-solver/pkg/database"
	"jee-solver/pkg/email"
	"jee-solver/pkg/logger"
	"jee-solver/pkg/messaging"
	"jee-solver/pkg/storage"
	"jee-solver/pkg/tracing"
)

// @title JEE Solver API
// @version 1.0
// @description Quiz sessions, results, revision and doubt solving for JEE preparation.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const serviceName = "jee-solver"

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.AppEnv)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("configuration loaded", "env", cfg.Server.AppEnv)

	shutdownTracing := tracing.Init(context.Background(), log, cfg.Otel, cfg.Server.AppEnv)

	pgClient, err := database.NewPostgresClient(&cfg.DB)
	if err != nil {
		log.Fatal("failed to connect to PostgreSQL", "error", err)
	}
	defer pgClient.Close()
	log.Info("connected to PostgreSQL")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := pgClient.InitSchema(ctx); err != nil {
		log.Warn("failed to initialize PostgreSQL schema", "error", err)
	} else {
		log.Info("PostgreSQL schema initialized")
	}
	cancel()

	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Fatal("failed to connect to Redis", "error", err)
	}
	defer redisClient.Close()
	log.Info("connected to Redis")

	rabbitClient, err := messaging.NewRabbitMQClient(&cfg.RabbitMQ)
	if err != nil {
		log.Fatal("failed to connect to RabbitMQ", "error", err)
	}
	defer rabbitClient.Close()
	log.Info("connected to RabbitMQ")

	s3Client, err := storage.NewS3Client(&cfg.S3)
	if err != nil {
		log.Fatal("failed to connect to S3", "error", err)
	}
	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	if err := s3Client.CreateBucket(ctx, cfg.S3.DoubtsBucket); err != nil {
		log.Warn("failed to ensure doubts bucket", "bucket", cfg.S3.DoubtsBucket, "error", err)
	}
	cancel()
	log.Info("connected to S3", "endpoint", cfg.S3.Endpoint)

	smtpClient := email.NewSMTPClient(&cfg.SMTP)
	backendClient := client.NewBackendClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, log)

	dispatcher := session.NewDispatcher(cfg.Quiz.DispatcherWorkers, cfg.Quiz.DispatcherQueue, log)

	db := pgClient.GetDB()
	resultRepo := repository.NewResultRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	bookmarkRepo := repository.NewBookmarkRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	handoffRepo := repository.NewHandoffRepository(redisClient, cfg.Quiz.HandoffTTL)

	hub := ws.NewHub(log)
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	resultService := service.NewResultService(resultRepo, progressRepo, rabbitClient, cfg.Quiz.TopicThreshold, log)
	quizService := service.NewQuizService(
		backendClient,
		handoffRepo,
		questionbank.New(cfg.Quiz.QuestionBankDir),
		bookmarkRepo,
		resultService,
		hub,
		dispatcher,
		service.QuizServiceConfig{RequestTimeout: cfg.Backend.Timeout, TickInterval: time.Second},
		log,
	)
	bookmarkService := service.NewBookmarkService(bookmarkRepo, log)
	doubtService := service.NewDoubtService(s3Client, backendClient, rabbitClient, cfg.S3.DoubtsBucket, log)
	questionService := service.NewQuestionService(questionRepo, log)
	notificationService := service.NewNotificationService(smtpClient, log)

	if os.Getenv("GIN_MODE") == "" && cfg.Server.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(cfg.Server.AllowedOrigins))
	router.Use(otelgin.Middleware(cfg.Otel.ServiceName))
	router.Use(middleware.ErrorHandler(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
		})
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := pgClient.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "dependency": "postgres"})
			return
		}
		if err := redisClient.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "dependency": "redis"})
			return
		}
		if rabbitClient.IsClosed() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "dependency": "rabbitmq"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":          "ready",
			"active_sessions": quizService.ActiveSessions(),
		})
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	handlers.RegisterRoutes(router, handlers.Handlers{
		Quiz:      handlers.NewQuizHandler(quizService),
		Session:   handlers.NewSessionHandler(quizService),
		WebSocket: handlers.NewWebSocketHandler(hub, quizService, cfg.Server.AllowedOrigins, log),
		Result:    handlers.NewResultHandler(resultService),
		Revision:  handlers.NewRevisionHandler(bookmarkService),
		Doubt:     handlers.NewDoubtHandler(doubtService),
		Question:  handlers.NewQuestionHandler(questionService),
	}, cfg.JWT.Secret)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info("HTTP server starting", "port", cfg.Server.HTTPPort)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start HTTP server", "error", err)
		}
	}()

	healthServer := health.NewServer()
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	log.Info("gRPC server starting", "port", cfg.Server.GRPCPort)

	go func() {
		lis, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
		if err != nil {
			log.Fatal("failed to listen on gRPC port", "error", err)
		}
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal("failed to serve gRPC", "error", err)
		}
	}()

	consumerCtx, stopConsumers := context.WithCancel(context.Background())
	startConsumers(consumerCtx, log, rabbitClient, notificationService)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	healthServer.Shutdown()

	ctx, cancel = context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Warn("HTTP server shutdown", "error", err)
	}

	quizService.Shutdown()
	dispatcher.Close()
	stopHub()
	stopConsumers()
	grpcServer.GracefulStop()

	if err := shutdownTracing(ctx); err != nil {
		log.Warn("tracer shutdown", "error", err)
	}
	log.Info("JEE Solver stopped")
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = origins
	}
	return cors.New(corsCfg)
}

func startConsumers(ctx context.Context, log *logger.Logger, rabbitClient *messaging.RabbitMQClient, notificationService *service.NotificationService) {
	go consumeQueue(ctx, log, rabbitClient, constants.QueueResultsReady, notificationService.HandleQuizResultsReady)

	log.Info("RabbitMQ consumers started")
}

func consumeQueue(ctx context.Context, log *logger.Logger, rabbitClient *messaging.RabbitMQClient, queueName string, handler func(context.Context, []byte) error) {
	msgs, err := rabbitClient.Consume(queueName)
	if err != nil {
		log.Error("failed to start consumer", "queue", queueName, "error", err)
		return
	}

	log.Info("started consumer", "queue", queueName)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				log.Warn("consumer channel closed", "queue", queueName)
				return
			}
			if err := handler(ctx, msg.Body); err != nil {
				log.Error("error handling message", "queue", queueName, "error", err)
				// Malformed messages would fail forever; drop them.
				msg.Nack(false, !errors.Is(err, service.ErrMalformedEvent))
			} else {
				msg.Ack(false)
			}
		}
	}
}
