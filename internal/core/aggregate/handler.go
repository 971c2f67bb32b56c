package aggregate

import (
	"github.com/gofiber/fiber/v2"

	"nextstep/internal/apperr"
	"nextstep/internal/utils/parser"
)

type Handler struct {
	svc *Service
}

func NewAggregateHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) HandleList(c *fiber.Ctx) error {
	var p Params
	if err := parser.ParseQuery(c, &p); err != nil {
		return apperr.Write(c, apperr.Validation("", "%v", err))
	}
	res, err := h.svc.Aggregate(c.Context(), p)
	if err != nil {
		return apperr.Write(c, err)
	}
	return c.JSON(res)
}
