package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chepyr/go-task-planner/internal/db"
	"github.com/chepyr/go-task-planner/internal/ratelimit"
	"github.com/chepyr/go-task-planner/tasks-service/handlers"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Fatalf("Error loading .env file: %v", err)
		}
	} else {
		log.Println(".env file not found, relying on environment variables")
	}

	validateEnv()
	dbConn := initDB()
	defer func() {
		if err := dbConn.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
		}
	}()

	mux := initHandlers(dbConn)
	server := initServer(mux)
	startServer(server)
}

func validateEnv() {
	requiredEnvVars := append(db.RequiredEnv(), "SERVER_PORT_TASKS", "JWT_SECRET")
	for _, env := range requiredEnvVars {
		if os.Getenv(env) == "" {
			log.Fatalf("Environment variable %s must be set", env)
		}
	}
}

func initDB() *sql.DB {
	driver, dsn := db.DSNFromEnv()
	dbConn, err := db.Connect(driver, dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.Migrate(ctx, dbConn); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	return dbConn
}

func initHandlers(dbConn *sql.DB) *http.ServeMux {
	handler := &handlers.Handler{
		TaskRepo: db.NewTaskRepository(dbConn),
		// WebSocket handshakes: 5 per second per IP
		RateLimiter: ratelimit.New(5, time.Second),
		WSHub:       handlers.NewWSHub(),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/tasks", handler.AuthMiddleware(handler.HandleTasks))
	mux.HandleFunc("/tasks/", handler.AuthMiddleware(handler.HandleTaskByID))
	mux.HandleFunc("/ws", handler.AuthMiddleware(handler.HandleWebSocket))
	return mux
}

func initServer(mux *http.ServeMux) *http.Server {
	return &http.Server{
		Addr:              ":" + os.Getenv("SERVER_PORT_TASKS"),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func startServer(server *http.Server) {
	log.Printf("Starting tasks server on %s", server.Addr)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped")
}
