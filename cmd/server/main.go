package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kedarnathdev/protectedData/internal/api"
	"github.com/kedarnathdev/protectedData/internal/config"
	"github.com/kedarnathdev/protectedData/internal/repositories"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Connect to database, run migrations, seed counter + admin
	repositories.ConnectDatabase()
	if err := repositories.SeedAdmin(repositories.DB, config.Envs.AdminUser, config.Envs.AdminPassword); err != nil {
		log.Fatal("Failed to seed admin user:", err)
	}

	// Optional S3-compatible mirror for uploaded files
	if s3cfg := config.Envs.S3; s3cfg.BucketName != "" {
		err := repositories.InitObjectStore(
			s3cfg.Endpoint,
			s3cfg.AccessKeyID,
			s3cfg.SecretAccessKey,
			s3cfg.BucketName,
			s3cfg.Region,
		)
		if err != nil {
			log.Fatal("Failed to initialize object store:", err)
		}
	}

	mux := api.SetupRouter()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.Envs.Port),
		Handler: mux,
		// Timeouts prevent resource exhaustion from slow clients
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Starting protectedData server on port: %s", config.Envs.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server stopped")
}
