package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-spot-exchange/internal/geo"
	"github.com/iliyamo/parking-spot-exchange/internal/hub"
	"github.com/iliyamo/parking-spot-exchange/internal/service"
)

// NearbyHandler serves radius discovery: a one-shot query and a streaming
// variant that pushes a fresh snapshot whenever a spot inside the circle
// changes or expires.
type NearbyHandler struct {
	Spots *service.SpotService
	Hub   *hub.Hub
}

// NewNearbyHandler constructs a NearbyHandler and panics if any dependency is nil.
func NewNearbyHandler(spots *service.SpotService, h *hub.Hub) *NearbyHandler {
	if spots == nil || h == nil {
		panic("nil dependency passed to NewNearbyHandler")
	}
	return &NearbyHandler{Spots: spots, Hub: h}
}

// parseCircle reads lat, lng and radius_m query parameters.
func parseCircle(c echo.Context) (geo.Point, float64, error) {
	lat, err := strconv.ParseFloat(c.QueryParam("lat"), 64)
	if err != nil {
		return geo.Point{}, 0, fmt.Errorf("lat: %w", err)
	}
	lng, err := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if err != nil {
		return geo.Point{}, 0, fmt.Errorf("lng: %w", err)
	}
	radius, err := strconv.ParseFloat(c.QueryParam("radius_m"), 64)
	if err != nil {
		return geo.Point{}, 0, fmt.Errorf("radius_m: %w", err)
	}
	return geo.Point{Latitude: lat, Longitude: lng}, radius, nil
}

// List handles GET /v1/spots/nearby.
func (h *NearbyHandler) List(c echo.Context) error {
	center, radius, err := parseCircle(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid query", "message": err.Error()})
	}
	spots, err := h.Spots.Nearby(c.Request().Context(), center, radius)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"spots": spots, "count": len(spots)})
}

// Stream handles GET /v1/spots/nearby/stream as server-sent events.  The
// first event is the current snapshot; subsequent events arrive when a
// covered spot changes or an expiry sweep runs.  The stream ends when the
// client disconnects; there is no server-side timeout.
func (h *NearbyHandler) Stream(c echo.Context) error {
	center, radius, err := parseCircle(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid query", "message": err.Error()})
	}
	// Validate before committing to the event-stream content type.
	if _, err := h.Spots.Nearby(c.Request().Context(), center, radius); err != nil {
		return writeServiceError(c, err)
	}

	sub, err := h.Hub.Subscribe(c.Request().Context(), center, radius)
	if err != nil {
		return writeServiceError(c, err)
	}
	defer sub.Cancel()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no") // nginx
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case snap, ok := <-sub.C:
			if !ok {
				return nil
			}
			body, err := json.Marshal(snap)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(res, "event: spots\ndata: %s\n\n", body); err != nil {
				return nil // client went away
			}
			res.Flush()
		case <-ctx.Done():
			return nil
		}
	}
}
