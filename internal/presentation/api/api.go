package api

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/homelyhq/homely/internal/infrastructure/auth"
	"github.com/homelyhq/homely/internal/infrastructure/configs"
	"github.com/homelyhq/homely/internal/infrastructure/logging"
	"github.com/homelyhq/homely/internal/infrastructure/metrics"
	"github.com/homelyhq/homely/internal/infrastructure/ratelimiter"
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

type Application struct {
	config               *configs.Config
	sessions             *auth.Sessions
	ratelimiter          ratelimiter.Limiter
	logger               logging.Logger
	healthHandler        *healthHandler.Handler
	sessionsHandler      *sessionsHandler.Handler
	usersHandler         *usersHandler.Handler
	postsHandler         *postsHandler.Handler
	conversationsHandler *conversationsHandler.Handler
	messagesHandler      *messagesHandler.Handler
	notificationsHandler *notificationsHandler.Handler
	webhooksHandler      *webhooksHandler.Handler
	relayHandler         *relayHandler.Handler
}

func NewApplication(
	config *configs.Config,
	sessions *auth.Sessions,
	ratelimiter ratelimiter.Limiter,
	logger logging.Logger,
	healthHandler *healthHandler.Handler,
	sessionsHandler *sessionsHandler.Handler,
	usersHandler *usersHandler.Handler,
	postsHandler *postsHandler.Handler,
	conversationsHandler *conversationsHandler.Handler,
	messagesHandler *messagesHandler.Handler,
	notificationsHandler *notificationsHandler.Handler,
	webhooksHandler *webhooksHandler.Handler,
	relayHandler *relayHandler.Handler,
) *Application {
	return &Application{
		config:               config,
		sessions:             sessions,
		ratelimiter:          ratelimiter,
		logger:               logger,
		healthHandler:        healthHandler,
		sessionsHandler:      sessionsHandler,
		usersHandler:         usersHandler,
		postsHandler:         postsHandler,
		conversationsHandler: conversationsHandler,
		messagesHandler:      messagesHandler,
		notificationsHandler: notificationsHandler,
		webhooksHandler:      webhooksHandler,
		relayHandler:         relayHandler,
	}
}

func (app *Application) Mount() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(app.loggerMiddleware)
	r.Use(app.prometheusMiddleware)
	r.Use(app.rateLimiterMiddleware)
	r.Use(app.enableCors)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", app.healthHandler.GetHealth)
		r.Get("/healthz", app.healthHandler.GetHealth)
		r.Get("/live", app.healthHandler.GetHealth)
		r.Get("/ready", app.healthHandler.GetReady)

		r.Post("/webhooks/clerk", app.webhooksHandler.ClerkWebhookHandler)
		r.Post("/auth/sessions", app.sessionsHandler.CreateSessionHandler)

		// Listings are browsable without a session.
		r.Get("/posts", app.postsHandler.QueryPostsHandler)
		r.Get("/posts/{postId}", app.postsHandler.GetPostHandler)

		r.Group(func(r chi.Router) {
			r.Use(app.authMiddleware)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", app.usersHandler.ListUsersHandler)
				r.Get("/me", app.usersHandler.GetMeHandler)
				r.Get("/{userId}", app.usersHandler.GetUserHandler)
				r.Put("/{userId}", app.usersHandler.UpdateUserHandler)
				r.Delete("/{userId}", app.usersHandler.DeleteUserHandler)
				r.Get("/{userId}/saved", app.usersHandler.ListSavedPostsHandler)
				r.Post("/{userId}/saved/{postId}", app.usersHandler.ToggleSavedPostHandler)
			})

			r.Post("/posts", app.postsHandler.CreatePostHandler)
			r.Put("/posts/{postId}", app.postsHandler.UpdatePostHandler)
			r.Delete("/posts/{postId}", app.postsHandler.DeletePostHandler)

			r.Route("/conversations", func(r chi.Router) {
				r.Get("/", app.conversationsHandler.ListConversationsHandler)
				r.Post("/", app.conversationsHandler.CreateConversationHandler)
				r.Get("/{chatId}", app.conversationsHandler.GetConversationHandler)
				r.Post("/{chatId}/read", app.conversationsHandler.MarkReadHandler)

				r.Get("/{chatId}/messages", app.messagesHandler.ListMessagesHandler)
				r.Post("/{chatId}/messages", app.messagesHandler.CreateMessageHandler)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", app.notificationsHandler.ListNotificationsHandler)
				r.Get("/unread-count", app.notificationsHandler.UnreadCountHandler)
				r.Post("/{notificationId}/read", app.notificationsHandler.MarkReadHandler)
				r.Post("/read-all", app.notificationsHandler.MarkAllReadHandler)
			})
		})
	})

	// Relay does its own token handshake so it sits outside the auth group.
	r.Get("/ws", app.relayHandler.ConnectHandler)

	r.Handle("/metrics", metrics.Handler())
	r.Handle("/debug/vars", expvar.Handler())

	uploads := http.StripPrefix("/uploads/", http.FileServer(http.Dir(app.config.HTTP.UploadsDir)))
	r.Handle("/uploads/*", uploads)

	if app.config.Tracing.Enabled {
		return otelhttp.NewHandler(r, "homely-api")
	}

	return r
}

func (app *Application) Run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", app.config.HTTP.Host, app.config.HTTP.Port),
		Handler:      mux,
		WriteTimeout: app.config.HTTP.WriteTimeout,
		ReadTimeout:  app.config.HTTP.ReadTimeout,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Info(logging.General, logging.Shutdown, "signal caught", map[logging.ExtraKey]any{
			"signal": s.String(),
		})

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Info(logging.General, logging.Startup, "server has started", map[logging.ExtraKey]any{
		"addr": srv.Addr,
	})

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Info(logging.General, logging.Shutdown, "server has stopped", map[logging.ExtraKey]any{
		"addr": srv.Addr,
	})

	return nil
}
