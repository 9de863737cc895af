package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/oksasatya/clientsphere/config"
	"github.com/oksasatya/clientsphere/internal/infrastructure/search"
	"github.com/oksasatya/clientsphere/internal/worker"
	"github.com/oksasatya/clientsphere/pkg/helpers"
)

// index_worker projects customer change events from RabbitMQ onto the
// Elasticsearch customers index.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-index-worker", cfg.Env, cfg.LogLevel)

	if cfg.RabbitMQURL == "" || cfg.RabbitMQCustomerQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}
	if len(cfg.ESAddrs()) == 0 {
		logger.Fatal("Elasticsearch not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		logger.WithError(err).Fatal("elasticsearch client")
	}
	index := search.NewCustomerIndex(es, cfg.ESCustomersIndex, logger)
	if err := index.EnsureIndex(ctx); err != nil {
		logger.WithError(err).Fatal("ensure customers index")
	}

	consumer, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQCustomerQueue, 16)
	if err != nil {
		logger.WithError(err).Fatal("rabbitmq consumer")
	}
	defer consumer.Close()

	msgs, err := consumer.Deliveries(cfg.AppName + "-index-worker")
	if err != nil {
		logger.WithError(err).Fatal("consume")
	}

	logger.WithField("queue", cfg.RabbitMQCustomerQueue).Info("index worker started")
	worker.NewIndexConsumer(index, logger).Run(ctx, msgs)
	logger.Info("index worker stopped")
}
