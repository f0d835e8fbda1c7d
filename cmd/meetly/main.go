package main

import (
	"os"

	"meetly/internal/availability"
	bookinghandler "meetly/internal/bookings/handler"
	bookingrepository "meetly/internal/bookings/repository"
	bookingservice "meetly/internal/bookings/service"
	bookingvalidator "meetly/internal/bookings/validator"
	eventtypehandler "meetly/internal/eventtypes/handler"
	eventtyperepository "meetly/internal/eventtypes/repository"
	eventtypeservice "meetly/internal/eventtypes/service"
	eventtypevalidator "meetly/internal/eventtypes/validator"
	schedulehandler "meetly/internal/schedules/handler"
	schedulerepository "meetly/internal/schedules/repository"
	scheduleservice "meetly/internal/schedules/service"
	schedulevalidator "meetly/internal/schedules/validator"
	"meetly/pkg/app"
	"meetly/pkg/config"
	"meetly/pkg/contracts"
	"meetly/pkg/kafka"
	kafka_config "meetly/pkg/kafka/config"
)

const ServiceName = "meetly"

const (
	bookingEventsTopic    = "meetly.booking-events"
	bookingEventsDLQTopic = "meetly.booking-events.dlq"
)

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Meetly service")

	producer := initProducer(cfg)
	if producer != nil {
		defer func() {
			if err := producer.Close(); err != nil {
				cfg.Log.Error("Failed to close Kafka producer", "error", err)
			}
		}()
	}

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(initHandlers(cfg, producer)...)
	serverApp.Run()
}

// initProducer returns nil when no brokers are configured. Booking
// events are then skipped entirely.
func initProducer(cfg *config.Config) *kafka.Producer {
	if os.Getenv(kafka_config.EnvKafkaBrokers) == "" {
		cfg.Log.Info("No Kafka brokers configured, booking events disabled")
		return nil
	}

	kafkaCfg := kafka_config.Load()
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, bookingEventsTopic, bookingEventsDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	return producer
}

func initHandlers(cfg *config.Config, producer *kafka.Producer) []contracts.Handler {
	scheduleRepo := schedulerepository.NewMongoScheduleRepository(cfg)
	scheduleService := scheduleservice.NewScheduleService(
		scheduleRepo,
		schedulevalidator.NewScheduleValidator(cfg.Log),
		cfg,
	)

	eventTypeRepo := eventtyperepository.NewMongoEventTypeRepository(cfg)
	eventTypeService := eventtypeservice.NewEventTypeService(
		eventTypeRepo,
		scheduleRepo,
		eventtypevalidator.NewEventTypeValidator(cfg.Log),
		cfg,
	)

	bookingRepo := bookingrepository.NewMongoBookingRepository(cfg)
	lockRepo := bookingrepository.NewMongoBookingLockRepository(cfg)

	// Assigning a nil *kafka.Producer directly would yield a non-nil
	// interface value and defeat the publisher nil check.
	var publisher bookingservice.EventPublisher
	if producer != nil {
		publisher = producer
	}

	bookingService := bookingservice.NewBookingService(
		bookingRepo,
		lockRepo,
		eventTypeRepo,
		scheduleRepo,
		publisher,
		bookingvalidator.NewBookingValidator(cfg.Log),
		cfg,
	)

	availabilityService := availability.NewAvailabilityService(
		eventTypeRepo,
		scheduleRepo,
		bookingRepo,
		cfg,
	)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	return []contracts.Handler{
		schedulehandler.NewScheduleHandler(scheduleService, cfg.Log),
		eventtypehandler.NewEventTypeHandler(eventTypeService, cfg.Log),
		availability.NewSlotHandler(availabilityService, cfg.Log),
		bookinghandler.NewBookingHandler(bookingService, cfg.Log),
	}
}
