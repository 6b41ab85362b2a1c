package httpapi

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/d0ren/climatesearch/internal/climate"
)

var validate = validator.New()

const (
	searchTimeout = 30 * time.Second
	ingestTimeout = 10 * time.Minute
)

// searchRequest is the POST body of the search endpoints.
type searchRequest struct {
	Query string `json:"query" validate:"required"`
	TopK  int    `json:"topK" validate:"gte=0,lte=1000"`
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *climate.Service) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Post("/api/ingest", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), ingestTimeout)
		defer cancel()

		if err := service.Run(ctx); err != nil {
			log.Printf("ingestion failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Ingestion failed",
			})
		}
		return c.JSON(fiber.Map{"status": "ingestion completed"})
	})

	search := func(c *fiber.Ctx) error {
		var req searchRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "missing `query`")
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), searchTimeout)
		defer cancel()

		results, err := service.Search(ctx, req.Query, req.TopK)
		if err != nil {
			if errors.Is(err, climate.ErrEmptyQuery) {
				return fiber.NewError(fiber.StatusBadRequest, "missing `query`")
			}
			log.Printf("search failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "search failed")
		}

		if results == nil {
			results = []climate.SearchResult{}
		}
		return c.JSON(fiber.Map{"results": results})
	}

	app.Post("/api/search", search)
	// Kept for callers of the older minimal surface.
	app.Post("/search", search)
}
