package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/greenroomhq/greenroom/internal/agent"
	"github.com/greenroomhq/greenroom/internal/config"
	"github.com/greenroomhq/greenroom/internal/events"
	"github.com/greenroomhq/greenroom/internal/logging"
	"github.com/greenroomhq/greenroom/internal/resume"
	"github.com/greenroomhq/greenroom/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	debug := flag.Bool("debug", false, "Debug log level")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := logging.New("worker", *debug)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sqlDB, err := storage.Connect(cfg.Database, logger)
	if err != nil {
		logger.Fatalw("database connection failed", "error", err)
	}
	db := storage.New(sqlDB)
	defer db.Close()

	objects, err := resume.NewObjectStore(ctx, cfg.Storage)
	if err != nil {
		logger.Fatalw("object store init failed", "error", err)
	}

	matcher, err := agent.New(ctx, cfg.Agent, logger)
	if err != nil {
		logger.Fatalw("agent init failed", "error", err)
	}

	// Publishing and consuming run on separate connections so a blocked
	// publish never stalls delivery acks.
	publisher, err := events.NewPublisher(cfg.AMQP, logger)
	if err != nil {
		logger.Fatalw("broker connection failed", "error", err)
	}
	defer publisher.Close()

	consumer, err := events.NewConsumer(cfg.AMQP, logger)
	if err != nil {
		logger.Fatalw("broker connection failed", "error", err)
	}

	proc := newProcessor(db, objects, matcher, publisher, logger)
	if err := consumer.StartConsumers(ctx, cfg.AMQP.Workers, proc.handle); err != nil {
		logger.Fatalw("consumer start failed", "error", err)
	}
	logger.Infow("worker consuming",
		"queue", cfg.AMQP.Queue,
		"workers", cfg.AMQP.Workers,
		"model", matcher.Model())

	<-ctx.Done()
	logger.Infow("shutting down")
	consumer.Close()
	consumer.Wait()
	logger.Infow("worker stopped")
}
