package api

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"salesdash/internal/config"
)

// NewServer wires the middleware stack and the routes of h.
func NewServer(h *Handler, cfg config.ServerConfig, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = JSONSerializer{}

	e.Use(middleware.CORS())
	e.Use(middleware.Recover())
	e.Use(RequestID())
	e.Use(RequestLogger(logger))
	e.Use(ContextLogger(logger))
	e.Use(RateLimiter(cfg.RateLimit))

	h.RegisterRoutes(e)
	return e
}
