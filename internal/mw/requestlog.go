package mw

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestIDHeader carries the id of a request in both directions.
const RequestIDHeader = "X-Request-ID"

const loggerKey = "logger"

// RequestLogger tags every request with an id and writes one log line
// when it completes. Handlers get the tagged logger through Logger.
func RequestLogger(base zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)

		log := base.With().Str("request_id", id).Logger()
		c.Set(loggerKey, log)

		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Str("client_ip", c.ClientIP()).
			Dur("latency", time.Since(start)).
			Msg("Request handled")
	}
}

// Logger returns the request-scoped logger, or fallback outside RequestLogger.
func Logger(c *gin.Context, fallback zerolog.Logger) zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if log, ok := v.(zerolog.Logger); ok {
			return log
		}
	}
	return fallback
}
