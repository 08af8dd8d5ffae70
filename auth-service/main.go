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

	"github.com/chepyr/go-task-planner/auth-service/handlers"
	"github.com/chepyr/go-task-planner/internal/db"
	"github.com/chepyr/go-task-planner/internal/ratelimit"
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
	requiredEnvVars := append(db.RequiredEnv(), "SERVER_PORT")
	for _, env := range requiredEnvVars {
		if os.Getenv(env) == "" {
			log.Fatalf("Environment variable %s must be set", env)
		}
	}
	if len(os.Getenv("JWT_SECRET")) < 32 {
		log.Fatal("JWT_SECRET must be at least 32 characters")
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
		UserRepo: db.NewUserRepository(dbConn),
		// allow max 5 attempts per 15 minutes from the same IP
		RateLimiter: ratelimit.New(5, 15*time.Minute),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/register", handler.Register)
	mux.HandleFunc("/login", handler.Login)
	return mux
}

func initServer(mux *http.ServeMux) *http.Server {
	return &http.Server{
		Addr:              ":" + os.Getenv("SERVER_PORT"),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func startServer(server *http.Server) {
	log.Printf("Starting auth server on %s", server.Addr)

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
