package main

import (
	"log"

	"github.com/KobaKhit/rebelzapp/config"
	"github.com/KobaKhit/rebelzapp/internal/eventtypes"
	"github.com/KobaKhit/rebelzapp/internal/handler"
	"github.com/KobaKhit/rebelzapp/internal/middleware"
	"github.com/KobaKhit/rebelzapp/internal/repository"
	"github.com/KobaKhit/rebelzapp/internal/service"
	"github.com/KobaKhit/rebelzapp/internal/ws"
	"github.com/KobaKhit/rebelzapp/pkg/database"
	"github.com/KobaKhit/rebelzapp/pkg/rabbitmq"
	"github.com/KobaKhit/rebelzapp/pkg/token"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg := config.Load()

	db := database.NewPostgresDB(cfg.DSN())

	// RabbitMQ: domain events for downstream consumers (notifications etc).
	// The app runs without a broker; publishes are then skipped.
	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
	if err != nil {
		log.Printf("rabbitmq unavailable, running without event publishing: %v", err)
		publisher = nil
	} else {
		defer publisher.Close()
	}

	tokens := token.NewManager(cfg.JWTSecret, cfg.TokenTTL)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	regRepo := repository.NewRegistrationRepository(db)
	attRepo := repository.NewAttendanceRepository(db)
	chatRepo := repository.NewChatRepository(db)

	// Services
	authSvc := service.NewAuthService(userRepo, tokens)
	eventSvc := service.NewEventService(eventRepo, eventtypes.Default(), publisher)
	regSvc := service.NewRegistrationService(regRepo, eventRepo, attRepo, userRepo, publisher)
	chatSvc := service.NewChatService(chatRepo, userRepo, publisher)

	hub := ws.NewHub()

	// Echo
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Validator = middleware.NewValidator()
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
		return c.JSON(200, map[string]string{"status": "ok", "service": "rebelzapp"})
	})

	handler.NewAuthHandler(authSvc).RegisterRoutes(e)
	handler.NewWebSocketHandler(hub, chatSvc, userRepo, tokens).RegisterRoutes(e)

	auth := middleware.Auth(tokens, userRepo)
	handler.NewEventHandler(eventSvc, userRepo).RegisterRoutes(e.Group("/api/v1/events", auth))
	handler.NewRegistrationHandler(regSvc, userRepo).RegisterRoutes(e.Group("/api/v1/registrations", auth))
	handler.NewChatHandler(chatSvc).RegisterRoutes(e.Group("/api/v1/chat", auth))

	log.Printf("Rebelz App starting on :%s", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
