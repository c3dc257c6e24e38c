package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/plumefed/plume/internal/config"
	"github.com/plumefed/plume/internal/database"
	"github.com/plumefed/plume/internal/federation"
	postgresrepo "github.com/plumefed/plume/internal/repository/postgres"
	"github.com/plumefed/plume/internal/service"
	"github.com/plumefed/plume/internal/transport/http/handlers"
	"github.com/plumefed/plume/internal/transport/http/middleware"
	"github.com/plumefed/plume/internal/transport/ws"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()

	uris, err := federation.NewURIs(cfg.BaseURL)
	if err != nil {
		logger.Fatal("invalid base url", zap.Error(err))
	}

	// Database
	pool, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()
	if err := database.Migrate(context.Background(), pool); err != nil {
		logger.Fatal("schema migration failed", zap.Error(err))
	}
	logger.Info("connected to database")

	// Repositories
	userRepo := postgresrepo.NewUserRepo(pool)
	actorRepo := postgresrepo.NewActorRepo(pool)
	keyRepo := postgresrepo.NewKeyRepo(pool)
	followRepo := postgresrepo.NewFollowRepo(pool)
	postRepo := postgresrepo.NewPostRepo(pool)

	// Federation collaborator
	fedClient := federation.NewClient(logger.Named("federation"))

	// WebSocket hub
	hub := ws.NewHub(logger.Named("ws"))
	go hub.Run()
	notifier := ws.NewHubNotifier(hub, logger.Named("ws"))

	// Services
	authService := service.NewAuthService(userRepo, uris, cfg.JWTSecret)
	keyService := service.NewKeyService(userRepo, keyRepo, logger.Named("keys"))
	actorService := service.NewActorService(actorRepo, keyService, uris, logger.Named("actors"))
	followerService := service.NewFollowerService(followRepo, userRepo)
	outboxService := service.NewOutboxService(fedClient, fedClient, keyService, uris, logger.Named("outbox"))
	postService := service.NewPostService(postRepo, actorRepo, followerService, outboxService, uris, notifier, logger.Named("posts"))
	inboxService := service.NewInboxService(actorService, followRepo, outboxService, fedClient, uris, notifier, logger.Named("inbox"))

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, logger.Named("http"))
	actorHandler := handlers.NewActorHandler(actorService, followerService, uris, logger.Named("http"))
	inboxHandler := handlers.NewInboxHandler(inboxService, logger.Named("http"))
	postHandler := handlers.NewPostHandler(postService, actorService, authService, logger.Named("http"))
	followHandler := handlers.NewFollowHandler(outboxService, followerService, authService, logger.Named("http"))

	// Auth middleware
	auth := middleware.Auth(cfg.JWTSecret)

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.HandleFunc("POST /api/v1/auth/setup", authHandler.Setup)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	// Federation surface
	mux.HandleFunc("GET /.well-known/webfinger", actorHandler.WebFinger)
	mux.HandleFunc("GET /users/{username}", actorHandler.GetActor)
	mux.HandleFunc("GET /users/{username}/followers", actorHandler.GetFollowers)
	mux.HandleFunc("GET /users/{username}/posts/{id}", postHandler.GetObject)
	mux.HandleFunc("POST /users/{username}/inbox", inboxHandler.Receive)
	mux.HandleFunc("POST /inbox", inboxHandler.Receive)

	// Protected - local UI
	mux.Handle("POST /api/v1/posts", auth(http.HandlerFunc(postHandler.Create)))
	mux.Handle("GET /api/v1/timeline", auth(http.HandlerFunc(postHandler.Timeline)))
	mux.Handle("POST /api/v1/following", auth(http.HandlerFunc(followHandler.SendFollow)))
	mux.Handle("GET /api/v1/following", auth(http.HandlerFunc(followHandler.ListFollowing)))
	mux.Handle("GET /api/v1/followers", auth(http.HandlerFunc(followHandler.ListFollowers)))
	mux.Handle("GET /api/v1/profile", auth(http.HandlerFunc(followHandler.Profile)))

	// WebSocket
	mux.HandleFunc("GET /ws", ws.ServeWS(hub, cfg.JWTSecret, logger.Named("ws")))

	// Start server with CORS
	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	logger.Info("starting server", zap.String("addr", addr), zap.String("base_url", cfg.BaseURL))
	if err := http.ListenAndServe(addr, middleware.CORS(mux)); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
