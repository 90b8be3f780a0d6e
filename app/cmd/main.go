package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"deploybot/app/config"
	"deploybot/app/usecase"
	"deploybot/internal/domain/repository"
	"deploybot/internal/infrastructure/llm"
	"deploybot/internal/infrastructure/marketplace"
	"deploybot/internal/infrastructure/metrics"
	"deploybot/internal/infrastructure/store/filesystem"
	"deploybot/internal/infrastructure/store/memory"
	mongorepo "deploybot/internal/infrastructure/store/mongodb"
	"deploybot/internal/infrastructure/transport"
)

func main() {
	// logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// load config
	cfg := loadConfig()

	// Connect to MongoDB
	mongoCtx, mongoCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer mongoCancel()
	mongoClient, err := mongo.Connect(mongoCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logger.Error("mongo connect failed", "err", err)
		log.Fatalf("mongo connect: %v", err)
	}
	if err := mongoClient.Ping(mongoCtx, nil); err != nil {
		logger.Error("mongo ping failed", "err", err)
		log.Fatalf("mongo ping: %v", err)
	}
	logger.Info("connected to mongo", "uri", cfg.Mongo.URI)
	db := mongoClient.Database(cfg.Mongo.Database)

	// Repositories
	conversationRepo := memory.NewConversationStore()
	deploymentRepo := mongorepo.NewMongoDeploymentRepo(db)
	manifestRepo, err := filesystem.NewFileRepository(cfg.FileRepo.ManifestDir)
	if err != nil {
		log.Printf("err init file repo: %s", err)
		return
	}

	// LLM enhancer (optional)
	var enhancer repository.Enhancer
	if cfg.LLM.APIKey != "" {
		enhancer = llm.NewChatEnhancer(
			cfg.LLM.APIKey,
			cfg.LLM.BaseURL,
			cfg.LLM.Model,
			cfg.LLM.Timeout,
		)
	} else {
		logger.Warn("LLM_API_KEY not set, enhancement pass disabled")
	}

	// Marketplace client
	marketClient := marketplace.NewClient(
		cfg.Marketplace.BaseURL,
		cfg.Marketplace.APIKey,
		cfg.Marketplace.Timeout,
	)

	// Usecases / services
	generateSvc := usecase.NewGenerateService(conversationRepo, enhancer, manifestRepo, logger)
	deploymentSvc := usecase.NewDeploymentService(deploymentRepo, conversationRepo, marketClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Transport (HTTP handlers)
	handler := transport.NewDeployBotHandler(
		generateSvc,
		deploymentSvc,
		marketClient,
		logger,
	)

	// Router and server
	r := mux.NewRouter()
	handler.RegisterRoutes(r)
	corsHandler := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      corsHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("starting metrics server on :2112")
		metrics.StartMetricsServer()
	}()

	// Start HTTP server

	go func() {
		logger.Info("starting HTTP server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "err", err)
			cancel()
		}
	}()

	// OS signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutdown signal received")
	case <-ctx.Done():
		logger.Info("context cancelled")
	}

	// Shutdown sequence
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	logger.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}

	logger.Info("disconnecting mongo")
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		logger.Error("mongo disconnect error", "err", err)
	}

	logger.Info("service stopped")
}

func loadConfig() *config.Config {
	cfg := &config.Config{
		Server: config.HTTPServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         8080,
			ReadTimeout:  2 * time.Minute,
			WriteTimeout: 2 * time.Minute,
		},
		LLM: config.LLMConfig{
			APIKey:  getEnv("LLM_API_KEY", ""),
			BaseURL: getEnv("LLM_BASE_URL", "https://api.openai.com/v1/chat/completions"),
			Model:   getEnv("LLM_MODEL", "gpt-4o-mini"),
			Timeout: 60 * time.Second,
		},
		Mongo: config.MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DB", "deploybot"),
		},
		Marketplace: config.MarketplaceConfig{
			BaseURL: getEnv("MARKETPLACE_URL", "http://localhost:9000"),
			APIKey:  getEnv("MARKETPLACE_API_KEY", ""),
			Timeout: 30 * time.Second,
		},
		FileRepo: config.FileRepoConfig{
			ManifestDir: getEnv("MANIFEST_DIR", "./manifests"),
		},
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
