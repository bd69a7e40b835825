package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-spot-exchange/internal/hub"
	"github.com/iliyamo/parking-spot-exchange/internal/queue"
	"github.com/iliyamo/parking-spot-exchange/internal/service"
)

// ConfirmHandler exposes POST /v1/spots/:id/confirm, the claim
// transaction.  On success the hub is notified and a spot.confirmed
// event goes to the broker; both happen after the database commit, and a
// broker failure never fails the request.
type ConfirmHandler struct {
	Confirms *service.Confirmer
	Spots    *service.SpotService
	Hub      *hub.Hub
	AMQPURL  string
}

// NewConfirmHandler constructs a ConfirmHandler and panics if any dependency is nil.
func NewConfirmHandler(confirms *service.Confirmer, spots *service.SpotService, h *hub.Hub, amqpURL string) *ConfirmHandler {
	if confirms == nil || spots == nil || h == nil {
		panic("nil dependency passed to NewConfirmHandler")
	}
	return &ConfirmHandler{Confirms: confirms, Spots: spots, Hub: h, AMQPURL: amqpURL}
}

// Confirm handles POST /v1/spots/:id/confirm.
func (h *ConfirmHandler) Confirm(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rec, err := h.Confirms.Confirm(c.Request().Context(), c.Param("id"), uid)
	if err != nil {
		return writeServiceError(c, err)
	}

	// Post-commit side effects.  The record is already durable; failures
	// here are logged and swallowed.
	spot, err := h.Spots.Get(c.Request().Context(), rec.SpotID)
	if err == nil {
		h.Hub.SpotChanged(c.Request().Context(), spot)
		_ = queue.PublishSpotConfirmed(c.Request().Context(), h.AMQPURL, queue.SpotConfirmedEvent{
			HistoryID:         rec.ID,
			SpotID:            spot.ID,
			OwnerID:           rec.OwnerID,
			ConfirmerID:       rec.ConfirmerID,
			PinType:           string(spot.PinType),
			Latitude:          spot.Latitude,
			Longitude:         spot.Longitude,
			IsPaid:            spot.IsPaid,
			ConfirmedAtMillis: rec.ConfirmedAtMillis,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"history": rec, "spot": spot})
}
