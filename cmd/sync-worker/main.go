package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"punch.reconciler/internal/config"
	"punch.reconciler/internal/core"
	"punch.reconciler/internal/ports/messaging"
	"punch.reconciler/internal/ports/repository"
	"punch.reconciler/internal/worker"
	syncworker "punch.reconciler/internal/worker/sync"
	"punch.reconciler/pkg/aws"
	"punch.reconciler/pkg/database"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Could not load configuration: %v", err)
	}

	// DB connection
	db, err := database.NewConnection(cfg)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	defer db.Close()
	log.Println("Successfully connected to the database.")

	// AWS SDK Config
	awsCfg, err := aws.NewAWSConfig(context.Background(), cfg)
	if err != nil {
		log.Fatalf("unable to load SDK config: %v", err)
	}

	// Initialize Dependencies
	sqsClient := sqs.NewFromConfig(awsCfg)

	punches := repository.NewPunchRepository(db)
	sessions := repository.NewSessionRepository(db)
	policies := repository.NewPolicyRepository(db)
	resolver := repository.NewIdentityResolver(db)
	syncLogs := repository.NewSyncLogRepository(db)
	producer := messaging.NewSQSProducer(sqsClient, cfg.ExportSQSQueueURL, cfg.NotifySQSQueueURL)

	engine := core.NewEngine(punches, sessions, resolver, policies, syncLogs, producer, core.Config{
		DuplicateWindow: time.Duration(cfg.DuplicateWindowSecs) * time.Second,
		DefaultTimezone: cfg.DefaultTimezone,
	})
	processor := syncworker.NewProcessor(engine)

	// Start Worker
	ctx, cancel := context.WithCancel(context.Background())
	app := worker.NewWorker(sqsClient, cfg.SyncSQSQueueURL, processor)

	go func() {
		app.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down worker...")

	// Cancel the context to signal the worker to stop polling.
	cancel()

	log.Println("Worker exited gracefully")
}
