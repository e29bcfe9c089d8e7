package workout

import (
	"errors"

	"backend-fittrack/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, store *Store, authMiddleware fiber.Handler) {
	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		records, err := store.History(c.Context(), requestUser(c), c.QueryInt("limit", defaultHistoryLimit))
		if errors.Is(err, ErrMissingUser) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if records == nil {
			records = []Record{}
		}
		return c.JSON(records)
	})

	r.Get("/totals", authMiddleware, func(c *fiber.Ctx) error {
		totals, err := store.Totals(c.Context(), requestUser(c))
		if errors.Is(err, ErrMissingUser) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(totals)
	})
}

// requestUser prefers the authenticated user over the query string.
func requestUser(c *fiber.Ctx) string {
	if id := auth.UserID(c); id != "" {
		return id
	}
	return c.Query("user_id")
}
