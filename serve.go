package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Eursukkul/booking-microservice/tenancy-service/config"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/consumer"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/handler"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/middleware"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/notify"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/repository"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/service"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/sweeper"
	"github.com/Eursukkul/booking-microservice/tenancy-service/pkg/rabbitmq"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

func runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(db)

	var opts []service.Option

	// RabbitMQ publisher: notifications and appointment cancellations.
	// Without a broker the services fall back to no-op ports.
	if pub, err := rabbitmq.NewPublisher(cfg.RabbitURL); err != nil {
		log.Printf("[RabbitMQ] publisher unavailable, notifications disabled: %v", err)
	} else {
		defer pub.Close()
		broker := notify.NewBroker(pub)
		opts = append(opts, service.WithNotifier(broker), service.WithAppointmentCanceller(broker))
	}

	// RabbitMQ consumer: sync properties from the catalog
	if mq, err := rabbitmq.NewConsumer(cfg.RabbitURL); err != nil {
		log.Printf("[RabbitMQ] consumer unavailable, property sync disabled: %v", err)
	} else {
		defer mq.Close()
		msgs, err := mq.Consume()
		if err != nil {
			return err
		}
		consumer.NewPropertyConsumer(repository.NewPropertyRepository(db)).Start(ctx, msgs)
	}

	app := newApp(cfg, db, opts...)

	sweep := sweeper.New(app.bookings)
	if err := sweep.Start(cfg.SweepSchedule); err != nil {
		return err
	}
	defer sweep.Stop()

	e := app.echo
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Tenancy Service starting on :%s", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Tenancy Service shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

type app struct {
	echo     *echo.Echo
	bookings service.BookingService
}

// newApp wires repositories, services and routes on top of db.
func newApp(cfg *config.Config, db *gorm.DB, opts ...service.Option) *app {
	// Repositories
	propertyRepo := repository.NewPropertyRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	exitRepo := repository.NewEarlyExitRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// Services
	bookingSvc := service.NewBookingService(bookingRepo, propertyRepo, opts...)
	exitSvc := service.NewEarlyExitService(exitRepo, bookingRepo, propertyRepo, opts...)
	messageSvc := service.NewMessageService(messageRepo, bookingRepo, propertyRepo, opts...)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "tenancy-service"})
	})

	api := e.Group("/api/v1", middleware.Actor(cfg.JWTSecret))
	handler.NewBookingHandler(bookingSvc).RegisterRoutes(api)
	handler.NewEarlyExitHandler(exitSvc).RegisterRoutes(api)
	handler.NewMessageHandler(messageSvc).RegisterRoutes(api)

	return &app{echo: e, bookings: bookingSvc}
}
