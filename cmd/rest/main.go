package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"course-buddy-be/internal/bootstrap"
	"course-buddy-be/internal/config"
	"course-buddy-be/internal/server"
	"course-buddy-be/internal/tracer"
	"course-buddy-be/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Tracer (no-op unless OTEL_ENABLED)
	shutdownTracer := tracer.InitTracer(cfg.Tracing)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(ctx)
	}()

	// 3. Initialize Database
	pool := database.DefaultPoolConfig()
	pool.MaxOpenConns = cfg.Database.MaxOpen
	gormDB, err := database.Open(cfg.Database.Connection, pool, cfg.Database.Debug)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 4. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")
		if err := srv.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	// 6. Run Server
	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
