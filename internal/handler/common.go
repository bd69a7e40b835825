package handler // handler defines http handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-spot-exchange/internal/repository"
	"github.com/iliyamo/parking-spot-exchange/internal/service"
)

// callerID extracts the authenticated user's id placed in the context by
// the JWT middleware.
func callerID(c echo.Context) (string, error) {
	if v, ok := c.Get("user_id").(string); ok && v != "" {
		return v, nil
	}
	return "", errors.New("invalid user_id in context")
}

// callerPremium reports the caller's subscription tier from the JWT
// claims.  Absent or malformed means not premium.
func callerPremium(c echo.Context) bool {
	v, _ := c.Get("premium").(bool)
	return v
}

// writeServiceError translates service and repository errors into HTTP
// responses.  Every handler funnels its failure path through here so the
// error taxonomy maps to status codes in exactly one place.
func writeServiceError(c echo.Context, err error) error {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "field": ve.Field, "message": ve.Reason})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
	case errors.Is(err, repository.ErrExpired):
		return c.JSON(http.StatusGone, echo.Map{"error": "expired"})
	default:
		c.Logger().Errorf("internal error: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal"})
	}
}
