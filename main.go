package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"mentei-messaging/internal/auth"
	"mentei-messaging/internal/config"
	"mentei-messaging/internal/db"
	"mentei-messaging/internal/handlers"
	"mentei-messaging/internal/middleware"
	"mentei-messaging/internal/observability"
	"mentei-messaging/internal/rabbitmq"
	"mentei-messaging/internal/relay"
	"mentei-messaging/internal/repositories"
	"mentei-messaging/internal/services"
	"mentei-messaging/internal/telemetry"
	"mentei-messaging/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()
	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		_ = shutdownTracing(ctx)
	}()

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	if cfg.AMQPURL != "" {
		eventsPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Printf("event publisher disabled: %v", err)
		} else {
			observability.SetPublisher(eventsPublisher)
			defer eventsPublisher.Close()
		}
	}

	auditPublisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer auditPublisher.Close()
	auditEmitter := telemetry.NewAuditEmitter(auditPublisher, "chat.events.audit", "mentei-messaging", cfg.Environment)
	log.Printf("audit publisher mode=%s", rabbitmq.PublisherMode(auditPublisher))

	userRepo := repositories.NewUserRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	notificationRepo := repositories.NewNotificationRepo(database)
	scoreRepo := repositories.NewScoreRepo(database)

	hub := ws.NewHub()
	rel := relay.New(cfg.RelayMode, cfg.NATSURL, hub)
	defer rel.Close()
	log.Printf("relay mode=%s", relay.Mode(rel))

	presence := services.NewPresenceTracker(userRepo, rel)
	if err := presence.ResetAll(ctx); err != nil {
		log.Fatalf("failed to reset presence: %v", err)
	}

	router := services.NewMessageRouter(messageRepo, userRepo, notificationRepo, scoreRepo, rel)
	receipts := services.NewReadReceipts(messageRepo, rel)
	scores := services.NewScoreService(userRepo, scoreRepo)

	verifier, err := auth.New(cfg.AuthMode, cfg.JWTSecret, userRepo)
	if err != nil {
		log.Fatalf("failed to build verifier: %v", err)
	}
	log.Printf("auth mode=%s", cfg.AuthMode)

	messageHandler := handlers.NewMessageHandler(router, receipts, auditEmitter)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	scoreHandler := handlers.NewScoreHandler(scores)
	presenceHandler := handlers.NewPresenceHandler(userRepo, presence)
	socket := ws.NewSocketHandler(hub, verifier, presence, router, receipts)

	engine := gin.Default()
	engine.Use(gin.Recovery())
	engine.Use(otelgin.Middleware("mentei-messaging"))
	engine.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.Auth(verifier)

	engine.GET("/messages/global", authMiddleware, messageHandler.GlobalHistory)
	engine.POST("/messages/global", authMiddleware, messageHandler.PostGlobal)
	engine.GET("/messages/conversation/:user_id", authMiddleware, messageHandler.ConversationHistory)
	engine.POST("/messages/private", authMiddleware, messageHandler.PostPrivate)
	engine.POST("/messages/read/:sender_id", authMiddleware, messageHandler.MarkRead)
	engine.GET("/messages/unread", authMiddleware, messageHandler.Unread)

	engine.GET("/notifications", authMiddleware, notificationHandler.List)
	engine.POST("/notifications/read", authMiddleware, notificationHandler.MarkAllRead)

	engine.GET("/score", authMiddleware, scoreHandler.State)
	engine.POST("/score", authMiddleware, scoreHandler.Award)
	engine.GET("/presence/:user_id", authMiddleware, presenceHandler.Status)

	engine.GET("/ws", socket.Handle)

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	handlers.RegisterDebugRoutes(engine, auditEmitter, cfg.DebugRoutes)

	if err := engine.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
