package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-spot-exchange/internal/repository"
	"github.com/iliyamo/parking-spot-exchange/internal/service"
)

// PointsHandler serves the caller's reward profile and claim history.
type PointsHandler struct {
	Ledger  *service.Ledger
	History *repository.HistoryRepo
}

// NewPointsHandler constructs a PointsHandler and panics if any dependency is nil.
func NewPointsHandler(ledger *service.Ledger, history *repository.HistoryRepo) *PointsHandler {
	if ledger == nil || history == nil {
		panic("nil dependency passed to NewPointsHandler")
	}
	return &PointsHandler{Ledger: ledger, History: history}
}

type pointsResp struct {
	UserID             string   `json:"user_id"`
	Points             int64    `json:"points"`
	Level              int      `json:"level"`
	PointsForNextLevel int64    `json:"points_for_next_level"`
	ReliabilityScore   int      `json:"reliability_score"`
	Badges             []string `json:"badges"`
	IsPremium          bool     `json:"is_premium"`
}

// Me handles GET /v1/points/me.  The account is created at zero on first
// sight, so a brand-new user gets a valid level-1 profile rather than 404.
func (h *PointsHandler) Me(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	acct, err := h.Ledger.Account(c.Request().Context(), uid, callerPremium(c))
	if err != nil {
		return writeServiceError(c, err)
	}

	level := service.Level(acct.Points)
	badges := acct.Badges
	if badges == nil {
		badges = []string{}
	}
	return c.JSON(http.StatusOK, pointsResp{
		UserID:             acct.UserID,
		Points:             acct.Points,
		Level:              level,
		PointsForNextLevel: service.PointsForNextLevel(level),
		ReliabilityScore:   acct.ReliabilityScore,
		Badges:             badges,
		IsPremium:          acct.IsPremium,
	})
}

// Claims handles GET /v1/points/me/claims: the caller's confirmation
// history, newest first.  `limit` caps the page, default 50, max 200.
func (h *PointsHandler) Claims(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		limit = n
	}
	if limit > 200 {
		limit = 200
	}

	recs, err := h.History.ListByConfirmer(c.Request().Context(), uid, limit)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"claims": recs, "count": len(recs)})
}
