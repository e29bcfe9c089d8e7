package boxing

import (
	"errors"

	"backend-fittrack/internal/auth"
	"backend-fittrack/internal/motion"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/sessions", authMiddleware, func(c *fiber.Ctx) error {
		var req startRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if id := auth.UserID(c); id != "" {
			req.UserID = id
		}
		session, err := svc.StartSession(req.UserID, req.Config)
		if err != nil {
			return toHTTPError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(session)
	})

	r.Put("/sessions/:id/config", authMiddleware, func(c *fiber.Ctx) error {
		var cfg motion.Config
		if err := c.BodyParser(&cfg); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		session, err := svc.Configure(c.Params("id"), cfg)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(session)
	})

	r.Post("/sessions/:id/samples", authMiddleware, func(c *fiber.Ctx) error {
		var req samplesRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		result, err := svc.AddSamples(c.Params("id"), req.Samples)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(result)
	})

	r.Get("/sessions/:id/stats", func(c *fiber.Ctx) error {
		nowMs := int64(c.QueryInt("now_ms", 0))
		stats, err := svc.Stats(c.Params("id"), nowMs)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(stats)
	})

	r.Post("/sessions/:id/reset", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Reset(c.Params("id")); err != nil {
			return toHTTPError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/sessions/:id/finish", authMiddleware, func(c *fiber.Ctx) error {
		var req finishRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}
		record, err := svc.Finish(c.Context(), c.Params("id"), req.DurationSec)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(record)
	})
}

func toHTTPError(err error) error {
	var cfgErr *motion.ConfigError
	switch {
	case errors.As(err, &cfgErr):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSessionNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrMissingUser):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
