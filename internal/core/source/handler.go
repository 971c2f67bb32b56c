package source

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"nextstep/internal/apperr"
	"nextstep/internal/core/extract"
	"nextstep/internal/core/listing"
	"nextstep/internal/logger"
)

type Handler struct {
	sources        *Service
	extract        *extract.Service
	previewTimeout time.Duration
	log            *logger.Logger
}

func NewSourceHandler(sources *Service, ex *extract.Service, previewTimeout time.Duration) *Handler {
	return &Handler{sources: sources, extract: ex, previewTimeout: previewTimeout, log: logger.New("SourceHandler")}
}

func (h *Handler) HandleCreate(c *fiber.Ctx) error {
	var req CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Write(c, apperr.Validation("", "invalid body"))
	}
	src, err := h.sources.Create(c.Context(), req)
	if err != nil {
		return apperr.Write(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sourceResponse{Message: "Source created", Source: src})
}

func (h *Handler) HandleList(c *fiber.Ctx) error {
	list, err := h.sources.List(c.Context())
	if err != nil {
		return apperr.Write(c, err)
	}
	return c.JSON(sourcesResponse{Sources: list})
}

func (h *Handler) HandleGet(c *fiber.Ctx) error {
	src, err := h.sources.Get(c.Context(), c.Params("id"))
	if err != nil {
		return apperr.Write(c, err)
	}
	return c.JSON(sourceResponse{Source: src})
}

func (h *Handler) HandleUpdate(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := ParseID(id); err != nil {
		return apperr.Write(c, err)
	}
	var req UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Write(c, apperr.Validation("", "invalid body"))
	}
	src, err := h.sources.Update(c.Context(), id, req)
	if err != nil {
		return apperr.Write(c, err)
	}
	return c.JSON(sourceResponse{Message: "Source updated", Source: src})
}

// HandleLivePreview fetches the source once without persisting anything.
// Unreachable or unparseable sources still answer 200 with the error text.
func (h *Handler) HandleLivePreview(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := ParseID(id); err != nil {
		return apperr.Write(c, err)
	}
	src, err := h.sources.Get(c.Context(), id)
	if err != nil {
		return apperr.Write(c, err)
	}

	ctx := context.Context(c.Context())
	if h.previewTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.previewTimeout)
		defer cancel()
	}

	items, err := h.extract.Fetch(ctx, src)
	switch {
	case err == nil:
		return c.JSON(previewResponse{Items: items})
	case apperr.IsExtraction(err):
		h.log.LogWarnf("Live preview failed for source %s: %v", src.ID, err)
		return c.JSON(previewResponse{Items: []listing.Listing{}, Error: err.Error()})
	default:
		return apperr.Write(c, err)
	}
}
