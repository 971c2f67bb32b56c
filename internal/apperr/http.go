package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Response is the JSON body written for failed requests.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// StatusCode maps an error onto the HTTP status the API reports for it.
func StatusCode(err error) int {
	var (
		validation  *ValidationError
		validations ValidationErrors
		notFound    *NotFoundError
		config      *ConfigError
		fetch       *FetchError
		parse       *ParseError
	)
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.As(err, &validation), errors.As(err, &validations):
		return fiber.StatusBadRequest
	case errors.As(err, &notFound):
		return fiber.StatusNotFound
	case errors.As(err, &config):
		return fiber.StatusBadRequest
	case errors.As(err, &fetch):
		return fiber.StatusBadGateway
	case errors.As(err, &parse):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// IsExtraction reports whether err came from talking to an external source
// (as opposed to its configuration).
func IsExtraction(err error) bool {
	var (
		fetch *FetchError
		parse *ParseError
	)
	return errors.As(err, &fetch) || errors.As(err, &parse)
}

// Write renders err with the status StatusCode picks.
func Write(c *fiber.Ctx, err error) error {
	return c.Status(StatusCode(err)).JSON(Response{Success: false, Error: err.Error()})
}
