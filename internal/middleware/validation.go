package middleware

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofiber/fiber/v3"
)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return ErrorResponseWith(c, status, code, message, nil)
}

// ErrorResponseWith is ErrorResponse with extra fields merged into the error object.
func ErrorResponseWith(c fiber.Ctx, status int, code, message string, extra fiber.Map) error {
	body := fiber.Map{
		"code":    code,
		"message": message,
	}
	for k, v := range extra {
		body[k] = v
	}
	return c.Status(status).JSON(fiber.Map{"error": body})
}

// ParseLinkID validates a link id path parameter.
func ParseLinkID(raw string) (int64, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, "link id is required"
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, "link id must be a positive integer"
	}
	return id, ""
}

// ValidationMessage flattens an ozzo-validation error into a single line,
// fields sorted by name.
func ValidationMessage(err error) string {
	var fields validation.Errors
	if !errors.As(err, &fields) {
		return err.Error()
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+fields[name].Error())
	}
	return strings.Join(parts, "; ")
}
