package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/jhoicas/asistente-tienda-api/pkg/logger"
)

// localRequestID clave en c.Locals donde requestid deja el identificador.
const localRequestID = "requestid"

// AccessLog registra una línea por petición: método, ruta, estado, latencia e id de la petición.
// Debe ir después de requestid.New().
func AccessLog(log *logger.Logger) fiber.Handler {
	l := log.Component("access")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		ev := l.Info()
		if status >= fiber.StatusInternalServerError {
			ev = l.Error().Err(err)
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("request_id", requestID(c)).
			Msg("http")
		return err
	}
}

func requestIDMiddleware() fiber.Handler {
	return requestid.New(requestid.Config{ContextKey: localRequestID})
}

func requestID(c *fiber.Ctx) string {
	s, _ := c.Locals(localRequestID).(string)
	return s
}
