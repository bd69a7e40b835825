package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-spot-exchange/internal/geo"
	"github.com/iliyamo/parking-spot-exchange/internal/hub"
	"github.com/iliyamo/parking-spot-exchange/internal/model"
	"github.com/iliyamo/parking-spot-exchange/internal/service"
)

// SpotHandler exposes the spot lifecycle endpoints.  All methods assume
// JWT authentication has already run; the caller's id and premium flag
// come from the request context.  Mutations notify the hub after the
// write commits so nearby streams refresh.
type SpotHandler struct {
	Spots *service.SpotService
	Hub   *hub.Hub
}

// NewSpotHandler constructs a SpotHandler and panics if any dependency is nil.
func NewSpotHandler(spots *service.SpotService, h *hub.Hub) *SpotHandler {
	if spots == nil || h == nil {
		panic("nil dependency passed to NewSpotHandler")
	}
	return &SpotHandler{Spots: spots, Hub: h}
}

// ----- DTOs -----

type createSpotReq struct {
	Latitude           float64       `json:"latitude"`
	Longitude          float64       `json:"longitude"`
	PinType            model.PinType `json:"pin_type"`
	WillLeaveInMinutes int           `json:"will_leave_in_minutes"`
	IsPaid             bool          `json:"is_paid"`
	Title              *string       `json:"title"`
	Description        *string       `json:"description"`
}

type updateSpotReq struct {
	Latitude           *float64       `json:"latitude"`
	Longitude          *float64       `json:"longitude"`
	PinType            *model.PinType `json:"pin_type"`
	WillLeaveInMinutes *int           `json:"will_leave_in_minutes"`
	IsPaid             *bool          `json:"is_paid"`
	Status             *model.Status  `json:"status"`
	Title              *string        `json:"title"`
	Description        *string        `json:"description"`
}

// Create handles POST /v1/spots.
func (h *SpotHandler) Create(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createSpotReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	spot, err := h.Spots.Create(c.Request().Context(), uid, callerPremium(c), service.CreateSpotParams{
		Location:           geo.Point{Latitude: req.Latitude, Longitude: req.Longitude},
		PinType:            req.PinType,
		WillLeaveInMinutes: req.WillLeaveInMinutes,
		IsPaid:             req.IsPaid,
		Title:              req.Title,
		Description:        req.Description,
	})
	if err != nil {
		return writeServiceError(c, err)
	}

	h.Hub.SpotChanged(c.Request().Context(), spot)
	return c.JSON(http.StatusCreated, spot)
}

// Get handles GET /v1/spots/:id.  The returned status is always the
// effective one, so a stale row reads as EXPIRED.
func (h *SpotHandler) Get(c echo.Context) error {
	spot, err := h.Spots.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, spot)
}

// Update handles PATCH /v1/spots/:id.  Owner only.
func (h *SpotHandler) Update(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req updateSpotReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	params := service.UpdateSpotParams{
		PinType:            req.PinType,
		WillLeaveInMinutes: req.WillLeaveInMinutes,
		IsPaid:             req.IsPaid,
		Status:             req.Status,
		Title:              req.Title,
		Description:        req.Description,
	}
	if req.Latitude != nil || req.Longitude != nil {
		if req.Latitude == nil || req.Longitude == nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "latitude and longitude must be sent together"})
		}
		params.Location = &geo.Point{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}

	spot, err := h.Spots.Update(c.Request().Context(), c.Param("id"), uid, params)
	if err != nil {
		return writeServiceError(c, err)
	}

	h.Hub.SpotChanged(c.Request().Context(), spot)
	return c.JSON(http.StatusOK, spot)
}

// Delete handles DELETE /v1/spots/:id.  Owner only, hard delete.
func (h *SpotHandler) Delete(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	// Read first: the hub needs the spot's cell after the row is gone.
	spot, err := h.Spots.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeServiceError(c, err)
	}
	if err := h.Spots.Delete(c.Request().Context(), c.Param("id"), uid); err != nil {
		return writeServiceError(c, err)
	}

	h.Hub.SpotChanged(c.Request().Context(), spot)
	return c.NoContent(http.StatusNoContent)
}
