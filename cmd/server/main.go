package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	amqp "github.com/streadway/amqp"

	"github.com/example/lotus/internal/config"
	"github.com/example/lotus/internal/database"
	"github.com/example/lotus/internal/routes"
	"github.com/example/lotus/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)

	var mq *rabbitmq.Client
	if cfg.RabbitMQEnabled {
		client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Printf("RabbitMQ unavailable, continuing without events: %v", err)
		} else {
			mq = client
			defer mq.Close()

			// Audit log of storefront events; cart.changed and
			// order.created land on the same queue.
			err := mq.ConsumeEvents(func(msg amqp.Delivery) error {
				log.Printf("[Events] %s: %s", msg.Type, string(msg.Body))
				return nil
			})
			if err != nil {
				log.Printf("failed to start event consumer: %v", err)
			}
		}
	}

	app := fiber.New(fiber.Config{
		AppName: "Lotus Backend",
	})

	app.Use(recover.New())
	app.Use(logger.New())

	routes.Register(app, db, cfg, mq)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on :%s", cfg.AppPort)
		if err := app.Listen(":" + cfg.AppPort); err != nil {
			log.Fatalf("fiber.Listen error: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
	log.Println("Server stopped")
}
