package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v11"

	"webinars/internal/notifier"
	"webinars/internal/participations/mailer"
	"webinars/internal/participations/validator"
	"webinars/pkg/kafka"
	kafka_config "webinars/pkg/kafka/config"
	kafkamiddleware "webinars/pkg/kafka/middleware"
	"webinars/pkg/logger"
)

const ServiceName = "notifier"

type relayConfig struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	GroupID  string `env:"NOTIFIER_GROUP_ID" envDefault:"webinar-notifier"`
	Topic    string `env:"KAFKA_NOTIFICATION_TOPIC" envDefault:"webinar-notifications"`
	DLQTopic string `env:"KAFKA_NOTIFICATION_DLQ_TOPIC" envDefault:"webinar-notifications-dlq"`
}

func main() {
	var cfg relayConfig
	if err := env.Parse(&cfg); err != nil {
		logger.New(logger.Config{Service: ServiceName}).Fatal("Invalid notifier configuration", "error", err)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Service: ServiceName, AddSource: true})

	smtpCfg, err := mailer.LoadSMTPConfig()
	if err != nil {
		log.Fatal("Invalid SMTP configuration", "error", err)
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(log)

	relay := notifier.NewRelay(mailer.NewSMTPMailer(smtpCfg), validator.NewParticipationValidator(log), log)
	consumer, err := kafka.NewConsumer(kafkaCfg, cfg.Topic, cfg.GroupID, cfg.DLQTopic, relay.Handle, log)
	if err != nil {
		log.Fatal("Failed to create Kafka consumer", "error", err)
	}

	metrics := kafkamiddleware.NewMetrics()
	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafkamiddleware.LoggingConsumerMiddleware(log))
		consumer.Use(metrics.ConsumerMiddleware())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Starting notifier relay",
		"topic", cfg.Topic,
		"group_id", cfg.GroupID,
		"smtp_host", smtpCfg.Host,
	)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Consumer stopped with error", "error", err)
	}

	metrics.Log(log)
	if err := consumer.Close(); err != nil {
		log.Error("Failed to close consumer", "error", err)
	}
	log.Info("Notifier relay stopped")
}
