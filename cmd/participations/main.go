package main

import (
	"context"

	"webinars/internal/participations/backend"
	"webinars/internal/participations/handler"
	"webinars/internal/participations/mailer"
	"webinars/internal/participations/notification"
	"webinars/internal/participations/service"
	"webinars/internal/participations/validator"
	"webinars/pkg/app"
	"webinars/pkg/config"
	"webinars/pkg/kafka"
	kafka_config "webinars/pkg/kafka/config"
	kafkamiddleware "webinars/pkg/kafka/middleware"
)

const ServiceName = "participations"

func main() {
	cfg := config.Load(ServiceName)
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Participations service")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	store, err := backend.Open(ctx, cfg)
	cancel()
	if err != nil {
		cfg.Log.Fatal("Failed to open storage backend", "driver", cfg.StorageDriver, "error", err)
	}

	emailer, closeMailer := initMailer(cfg)
	participationValidator := validator.NewParticipationValidator(cfg.Log)
	participationService := service.NewParticipationService(
		store.Webinars,
		store.Users,
		store.Participations,
		store.Locker,
		notification.NewDispatcher(emailer, cfg.NotificationTimeout, cfg.Log),
		participationValidator,
		cfg,
	)
	cfg.Log.Info("Participation service initialized", "driver", cfg.StorageDriver, "mailer", cfg.NotificationMailer)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		handler.NewParticipationHandler(participationService, participationValidator, cfg.Log),
		handler.NewHealthHandler(store.Pinger, cfg.Log),
	)
	serverApp.OnShutdown(func() {
		if err := store.Close(); err != nil {
			cfg.Log.Error("Failed to close storage backend", "error", err)
		}
	})
	serverApp.OnShutdown(closeMailer)
	serverApp.Run()
}

func initMailer(cfg *config.Config) (notification.Mailer, func()) {
	if cfg.NotificationMailer != config.MailerKafka {
		return mailer.NewLogMailer(cfg.Log), func() {}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.KafkaNotificationTopic, cfg.KafkaNotificationDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	metrics := kafkamiddleware.NewMetrics()
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafkamiddleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(metrics.ProducerMiddleware())
	}

	return mailer.NewKafkaMailer(producer, ServiceName), func() {
		metrics.Log(cfg.Log)
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	}
}
