package http

import (
	nethttp "net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/jhoicas/asistente-tienda-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Chat           ChatService
	Metrics        nethttp.Handler // nil = sin /metrics
	AllowedOrigins []string        // vacío = cualquier origen
	Log            *logger.Logger
}

// Router registra middlewares y rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}

	app.Use(requestIDMiddleware())
	app.Use(AccessLog(log))
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(deps.AllowedOrigins, ","),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	app.Get("/health", Health)
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}

	chatHandler := NewChatHandler(deps.Chat, log)
	app.Post("/chat", chatHandler.Chat)
}
