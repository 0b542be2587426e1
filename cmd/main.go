package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/mkusuma/courtview/adapters"
	"github.com/mkusuma/courtview/adapters/mongo"
	"github.com/mkusuma/courtview/adapters/simapi"
	"github.com/mkusuma/courtview/adapters/simws"
	"github.com/mkusuma/courtview/domain/repositories"
	"github.com/mkusuma/courtview/internal/api"
	"github.com/mkusuma/courtview/internal/websocket"
)

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Simulation backend REST client
	backendURL := os.Getenv("SIM_BACKEND_URL")
	if backendURL == "" {
		backendURL = "http://localhost:8000"
	}
	backend, err := simapi.NewClient(simapi.Config{BaseURL: backendURL}, logger)
	if err != nil {
		logger.Fatal("failed to create simulation backend client", zap.Error(err))
	}

	// Per-case live event stream
	streamURL := os.Getenv("SIM_STREAM_URL")
	if streamURL == "" {
		streamURL = "ws://localhost:8000/stream"
	}
	source, err := simws.NewSource(streamURL, logger)
	if err != nil {
		logger.Fatal("failed to create stream source", zap.Error(err))
	}

	// Session archive: MongoDB when configured, in-memory otherwise.
	var archive repositories.SessionArchive
	var mongoClient *mongo.Client
	if uri := os.Getenv("MONGODB_URI"); uri != "" {
		mongoClient, err = mongo.NewClient(mongo.Config{
			URI:      uri,
			Database: os.Getenv("MONGODB_DATABASE"),
		}, logger)
		if err != nil {
			logger.Fatal("failed to connect to MongoDB", zap.Error(err))
		}
		archive = mongo.NewArchiveRepository(mongoClient.Database)
	} else {
		logger.Warn("MONGODB_URI not set, archiving sessions in memory")
		archive = adapters.NewMemoryArchive()
	}

	// Initialize viewer hub
	hub := websocket.NewHub(backend, source, archive, logger)
	go hub.Run()

	// Initialize API routes
	api.InitRoutes(e, hub, backend, archive, logger)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Courtroom viewer gateway started",
		zap.String("port", port),
		zap.String("backend_url", backendURL))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hub.Stop()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	if mongoClient != nil {
		if err := mongoClient.Close(ctx); err != nil {
			logger.Warn("failed to close MongoDB connection", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}
