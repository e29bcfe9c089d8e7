package tracking

import (
	"errors"
	"time"

	"backend-fittrack/internal/auth"

	"github.com/gofiber/fiber/v2"
)

type manualRouteRequest struct {
	Points []RoutePoint `json:"points"`
}

type geoErrorRequest struct {
	Code string `json:"code"`
}

type finishRequest struct {
	EndedAt time.Time `json:"ended_at"`
}

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/sessions", authMiddleware, func(c *fiber.Ctx) error {
		var req Session
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if id := auth.UserID(c); id != "" {
			req.UserID = id
		}
		session, err := svc.StartSession(c.Context(), req)
		if err != nil {
			return toHTTPError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(session)
	})

	r.Post("/sessions/:id/fixes", authMiddleware, func(c *fiber.Ctx) error {
		var fix Fix
		if err := c.BodyParser(&fix); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		result, err := svc.AddFix(c.Context(), c.Params("id"), fix)
		if err != nil {
			return toHTTPError(err)
		}
		if !result.Accepted {
			return c.JSON(result)
		}
		return c.Status(fiber.StatusCreated).JSON(result)
	})

	r.Put("/sessions/:id/route", authMiddleware, func(c *fiber.Ctx) error {
		var req manualRouteRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		summary, err := svc.SetManualRoute(c.Context(), c.Params("id"), req.Points)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(summary)
	})

	r.Delete("/sessions/:id/route", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.ClearRoute(c.Context(), c.Params("id")); err != nil {
			return toHTTPError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/sessions/:id/errors", authMiddleware, func(c *fiber.Ctx) error {
		var req geoErrorRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := svc.ReportGeoError(c.Params("id"), req.Code); err != nil {
			return toHTTPError(err)
		}
		return c.SendStatus(fiber.StatusAccepted)
	})

	r.Post("/sessions/:id/finish", authMiddleware, func(c *fiber.Ctx) error {
		var req finishRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}
		record, err := svc.Finish(c.Context(), c.Params("id"), req.EndedAt)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(record)
	})

	r.Get("/sessions/:id/summary", func(c *fiber.Ctx) error {
		summary, err := svc.Summary(c.Context(), c.Params("id"))
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(summary)
	})

	r.Get("/sessions/:id/points", func(c *fiber.Ctx) error {
		points, err := svc.Points(c.Context(), c.Params("id"))
		if err != nil {
			return toHTTPError(err)
		}
		if points == nil {
			points = []TrackPoint{}
		}
		return c.JSON(points)
	})
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrMissingUser), errors.Is(err, ErrInvalidRoute), errors.Is(err, ErrUnknownGeoError):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
