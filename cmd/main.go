package main

import (
	"context"
	"expvar"
	"log"
	"runtime"

	"github.com/joho/godotenv"

	"github.com/homelyhq/homely/internal/infrastructure/auth"
	"github.com/homelyhq/homely/internal/infrastructure/configs"
	"github.com/homelyhq/homely/internal/infrastructure/events"
	"github.com/homelyhq/homely/internal/infrastructure/logging"
	"github.com/homelyhq/homely/internal/infrastructure/messaging"
	"github.com/homelyhq/homely/internal/infrastructure/ratelimiter"
	"github.com/homelyhq/homely/internal/infrastructure/tracing"
	"github.com/homelyhq/homely/internal/infrastructure/webhook"
	"github.com/homelyhq/homely/internal/infrastructure/ws"
	"github.com/homelyhq/homely/internal/persistence/db"
	"github.com/homelyhq/homely/internal/persistence/repository"
	"github.com/homelyhq/homely/internal/presentation/api"
	conversationsHandler "github.com/homelyhq/homely/internal/presentation/handler/conversations"
	healthHandler "github.com/homelyhq/homely/internal/presentation/handler/health"
	messagesHandler "github.com/homelyhq/homely/internal/presentation/handler/messages"
	notificationsHandler "github.com/homelyhq/homely/internal/presentation/handler/notifications"
	postsHandler "github.com/homelyhq/homely/internal/presentation/handler/posts"
	relayHandler "github.com/homelyhq/homely/internal/presentation/handler/relay"
	sessionsHandler "github.com/homelyhq/homely/internal/presentation/handler/sessions"
	usersHandler "github.com/homelyhq/homely/internal/presentation/handler/users"
	webhooksHandler "github.com/homelyhq/homely/internal/presentation/handler/webhooks"
)

const serviceName = "homely-api"

func main() {
	// Missing .env is fine; containers get their env from the orchestrator.
	_ = godotenv.Load()

	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		FilePath: cfg.Logging.FilePath,
		Encoding: cfg.Logging.Encoding,
		Level:    cfg.Logging.Level,
		Logger:   cfg.Logging.Logger,
	})
	logger.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Tracing.Enabled {
		tracerCfg := tracing.NewDefaultConfig(serviceName)
		sh, err := tracing.InitTracer(tracerCfg)
		if err != nil {
			log.Fatalf("Failed to initialize the tracer: %v", err)
		}
		defer sh(ctx)
	}

	mongoCfg := &db.MongoConfig{
		URI:               cfg.Mongo.URI,
		Database:          cfg.Mongo.Database,
		ConnectionTimeout: cfg.Mongo.ConnectionTimeout,
	}
	mongoClient, err := db.NewMongoClient(ctx, mongoCfg)
	if err != nil {
		log.Fatal(err)
	}
	defer db.DisconnectMongo(context.Background(), mongoClient)

	database := db.GetDatabase(mongoClient, mongoCfg)

	userRepository := repository.NewUserRepository(database)
	postRepository := repository.NewPostRepository(database)
	savedPostRepository := repository.NewSavedPostRepository(database)
	conversationRepository := repository.NewConversationRepository(database)
	messageRepository := repository.NewMessageRepository(database)
	notificationRepository := repository.NewNotificationRepository(database)

	for _, ensure := range []func(context.Context) error{
		userRepository.EnsureIndexes,
		postRepository.EnsureIndexes,
		savedPostRepository.EnsureIndexes,
		conversationRepository.EnsureIndexes,
		messageRepository.EnsureIndexes,
		notificationRepository.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			log.Fatalf("Failed to ensure indexes: %v", err)
		}
	}

	sessionSecret := cfg.Auth.SessionSecret
	if sessionSecret == "" {
		if cfg.HTTP.IsProduction() {
			log.Fatal("SESSION_SECRET is required in production")
		}
		logger.Warnf("SESSION_SECRET not set, using an insecure development secret")
		sessionSecret = "insecure-dev-secret"
	}

	sessions, err := auth.NewSessions(sessionSecret, cfg.Auth.SessionTTL)
	if err != nil {
		log.Fatal(err)
	}

	clerkSecret := cfg.Webhook.ClerkSecret
	if clerkSecret == "" {
		if cfg.HTTP.IsProduction() {
			log.Fatal("CLERK_WEBHOOK_SECRET is required in production")
		}
		logger.Warnf("CLERK_WEBHOOK_SECRET not set, webhook deliveries will be rejected")
		clerkSecret = "whsec_aW5zZWN1cmUtZGV2LXNlY3JldA=="
	}

	verifier, err := webhook.NewVerifier(clerkSecret, cfg.Webhook.Tolerance)
	if err != nil {
		log.Fatal(err)
	}

	wsCore := ws.NewCore(conversationRepository, logger, ws.Options{
		RoomDelivery:   cfg.Relay.RoomDelivery,
		DirectDelivery: cfg.Relay.DirectDelivery,
	})
	go wsCore.Run()

	var notificationPublisher *events.NotificationPublisher
	if cfg.Messaging.Enabled {
		rabbitmq, err := messaging.NewRabbitMQ(cfg.Messaging.URI)
		if err != nil {
			log.Fatal(err)
		}
		defer rabbitmq.Close()

		log.Println("Starting RabbitMQ connection")

		notificationPublisher = events.NewNotificationPublisher(rabbitmq)

		notificationConsumer := events.NewNotificationConsumer(rabbitmq, notificationRepository)
		go notificationConsumer.Listen()
	}

	rl := ratelimiter.NewFixedWindowRateLimiter(cfg.RateLimiter.RequestsPerTimeFrame, cfg.RateLimiter.TimeFrame)
	defer rl.Close()

	app := api.NewApplication(
		cfg,
		sessions,
		rl,
		logger,
		healthHandler.NewHandler(mongoClient),
		sessionsHandler.NewHandler(sessions, userRepository, cfg.Auth.BackendAPIKey),
		usersHandler.NewHandler(userRepository, postRepository, savedPostRepository),
		postsHandler.NewHandler(postRepository),
		conversationsHandler.NewHandler(conversationRepository, userRepository),
		messagesHandler.NewHandler(messageRepository, conversationRepository, notificationPublisher),
		notificationsHandler.NewHandler(notificationRepository),
		webhooksHandler.NewHandler(verifier, userRepository, notificationPublisher, logger),
		relayHandler.NewHandler(wsCore, sessions, cfg.HTTP, cfg.Relay, logger),
	)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	if err := app.Run(mux); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}
