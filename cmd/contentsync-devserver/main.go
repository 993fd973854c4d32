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

	"github.com/vrsandeep/contentsync-go/internal/config"
	"github.com/vrsandeep/contentsync-go/internal/devserver"
	"github.com/vrsandeep/contentsync-go/internal/pushserver"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	hub := pushserver.NewHub()
	go hub.Run()

	server := devserver.NewServer(hub, devserver.Options{
		Token:     cfg.DevServer.Token,
		StepDelay: cfg.DevServer.StepDelay,
	})
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.DevServer.Port),
		Handler: server.Router(),
	}

	go func() {
		log.Printf("Starting dev Content Service on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %v", err)
		}
	}()

	// Wait for an interrupt signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	server.Close()
	hub.Stop()

	log.Println("Server exiting.")
}
