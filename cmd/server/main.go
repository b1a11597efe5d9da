package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edusuite/db-bridge/internal/config"
	"github.com/edusuite/db-bridge/internal/logger"
	"github.com/edusuite/db-bridge/internal/mcp"
	"github.com/edusuite/db-bridge/internal/session"
	"github.com/edusuite/db-bridge/internal/transport"
	"github.com/edusuite/db-bridge/pkg/db"
	"github.com/edusuite/db-bridge/pkg/dbtools"
	"github.com/edusuite/db-bridge/pkg/tools"
)

func main() {
	// Parse command line flags
	transportMode := flag.String("t", "", "Transport mode (stdio or http)")
	port := flag.Int("port", 0, "Server port for the http transport")
	flag.Parse()

	// Load configuration
	cfg := config.LoadConfig()

	// Override config with command line flags if provided
	if *transportMode != "" {
		cfg.TransportMode = *transportMode
	}
	if *port != 0 {
		cfg.ServerPort = *port
	}

	// Initialize logger
	logger.Initialize(cfg.LogLevel)
	logger.Info("Starting db-bridge with %s transport", cfg.TransportMode)

	// Construct and connect the database gateway
	database, err := db.NewDatabase(db.Config{
		Type:         cfg.DBConfig.Type,
		Host:         cfg.DBConfig.Host,
		Port:         cfg.DBConfig.Port,
		User:         cfg.DBConfig.User,
		Password:     cfg.DBConfig.Password,
		Name:         cfg.DBConfig.Name,
		MaxOpenConns: cfg.DBConfig.MaxOpenConns,
		MaxIdleConns: cfg.DBConfig.MaxIdleConns,
	})
	if err != nil {
		logger.Error("Invalid database configuration: %v", err)
		os.Exit(1)
	}
	if err := database.Connect(); err != nil {
		logger.Error("Failed to connect to database: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("Error closing database: %v", err)
		}
	}()

	// Register the four generic operations
	toolRegistry := tools.NewRegistry()
	toolset := dbtools.NewToolset(database, dbtools.Options{
		QueryTimeout:  cfg.DBConfig.QueryTimeout,
		AuditedTables: cfg.AuditedTables,
	})
	toolset.RegisterAll(toolRegistry)

	mcpHandler := mcp.NewHandler(toolRegistry)
	logger.Info("Registered tools: %s", mcpHandler.ListAvailableTools())

	sessionManager := session.NewManager()

	switch cfg.TransportMode {
	case "stdio":
		runStdio(sessionManager, mcpHandler)
	case "http":
		runHTTP(cfg, sessionManager, mcpHandler)
	default:
		logger.Error("Unknown transport mode: %s", cfg.TransportMode)
		os.Exit(1)
	}

	logger.Info("Server stopped")
}

func runStdio(sessionManager *session.Manager, mcpHandler *mcp.Handler) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		cancel()
	}()

	stdio := transport.NewStdioTransport(sessionManager, mcpHandler)
	if err := stdio.Run(ctx); err != nil {
		logger.Error("Stdio transport error: %v", err)
		os.Exit(1)
	}
}

func runHTTP(cfg *config.Config, sessionManager *session.Manager, mcpHandler *mcp.Handler) {
	httpTransport := transport.NewHTTPTransport(sessionManager, mcpHandler)

	mux := http.NewServeMux()
	mux.HandleFunc("/rpc", httpTransport.HandleRPC)

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Sweep sessions left behind by aborted calls
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			sessionManager.CleanupSessions(30 * time.Minute)
		}
	}()

	go func() {
		logger.Info("Server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	// Shutdown server gracefully, draining in-flight requests
	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error: %v", err)
	}
}
