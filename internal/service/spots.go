package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/iliyamo/parking-spot-exchange/internal/clock"
	"github.com/iliyamo/parking-spot-exchange/internal/geo"
	"github.com/iliyamo/parking-spot-exchange/internal/model"
	"github.com/iliyamo/parking-spot-exchange/internal/repository"
)

const millisPerMinute = 60_000

// SpotStore is the persistence surface SpotService needs.  Implemented by
// *repository.SpotRepo.
type SpotStore interface {
	Insert(ctx context.Context, s *model.Spot) error
	InsertIfNoActiveLeavingSoon(ctx context.Context, s *model.Spot, nowMillis int64) (bool, error)
	GetByID(ctx context.Context, id string) (*model.Spot, error)
	Update(ctx context.Context, s *model.Spot) error
	Delete(ctx context.Context, id string) error
	QueryActiveInCells(ctx context.Context, cells []string, nowMillis int64) ([]model.Spot, error)
}

// SpotService validates and executes the spot lifecycle operations:
// owner-authorized create, read, update and delete, plus the two-phase
// nearby query (coarse geohash prefilter in the store, exact haversine
// cut here).
type SpotService struct {
	spots    SpotStore
	accounts AccountStore
	clk      clock.Clock
}

// NewSpotService constructs a SpotService.
func NewSpotService(spots SpotStore, accounts AccountStore, clk clock.Clock) *SpotService {
	if spots == nil || accounts == nil || clk == nil {
		panic("nil dependency passed to NewSpotService")
	}
	return &SpotService{spots: spots, accounts: accounts, clk: clk}
}

// CreateSpotParams carries the caller-supplied fields for a new spot.
type CreateSpotParams struct {
	Location           geo.Point
	PinType            model.PinType
	WillLeaveInMinutes int
	IsPaid             bool
	Title              *string
	Description        *string
}

// validateLocation checks the coordinate ranges field by field.
func validateLocation(p geo.Point) error {
	if p.Latitude < -90 || p.Latitude > 90 {
		return invalid("latitude", "must be between -90 and 90")
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return invalid("longitude", "must be between -180 and 180")
	}
	return nil
}

// leaseMinutes resolves the effective lease for a pin.  WalkIn pins
// always get the fixed lease regardless of what the caller sent;
// LeavingSoon pins must declare a departure inside the allowed window.
func leaseMinutes(pt model.PinType, requested int) (int, error) {
	if pt == model.PinWalkIn {
		return model.WalkInLeaseMinutes, nil
	}
	if requested < model.MinLeaveMinutes || requested > model.MaxLeaveMinutes {
		return 0, invalid("will_leave_in_minutes", "must be between 2 and 60")
	}
	return requested, nil
}

// Create validates the input and stores a new spot owned by the caller.
// For LeavingSoon pins the store enforces at most one effectively-active
// LeavingSoon spot per owner; a second create returns ErrConflict.  The
// caller's premium flag feeds the derived priority score.
func (s *SpotService) Create(ctx context.Context, ownerID string, callerPremium bool, p CreateSpotParams) (*model.Spot, error) {
	if err := validateLocation(p.Location); err != nil {
		return nil, err
	}
	if !model.IsValidPinType(p.PinType) {
		return nil, invalid("pin_type", "must be WALK_IN or LEAVING_SOON")
	}
	minutes, err := leaseMinutes(p.PinType, p.WillLeaveInMinutes)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.Ensure(ctx, ownerID, callerPremium); err != nil {
		return nil, err
	}
	acct, err := s.accounts.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	now := s.clk.NowMillis()
	spot := &model.Spot{
		ID:                 uuid.NewString(),
		OwnerID:            ownerID,
		Latitude:           p.Location.Latitude,
		Longitude:          p.Location.Longitude,
		Geohash:            geo.Encode(p.Location),
		PinType:            p.PinType,
		WillLeaveInMinutes: minutes,
		IsPaid:             p.IsPaid,
		Status:             model.CreationStatus(p.PinType),
		Title:              p.Title,
		Description:        p.Description,
		PriorityScore:      PriorityScore(acct.ReliabilityScore, acct.IsPremium, p.PinType),
		CreatedAtMillis:    now,
		ExpiresAtMillis:    now + int64(minutes)*millisPerMinute,
	}

	if p.PinType == model.PinLeavingSoon {
		ok, err := s.spots.InsertIfNoActiveLeavingSoon(ctx, spot, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, repository.ErrConflict
		}
		return spot, nil
	}
	if err := s.spots.Insert(ctx, spot); err != nil {
		return nil, err
	}
	return spot, nil
}

// Get returns a spot by id.  The raw stored status is never exposed: the
// returned copy carries the effective status at the shared clock's now.
func (s *SpotService) Get(ctx context.Context, id string) (*model.Spot, error) {
	spot, err := s.spots.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	spot.Status = model.EffectiveStatus(spot, s.clk.NowMillis())
	return spot, nil
}

// UpdateSpotParams is the patch an owner may apply.  Nil fields are left
// untouched; touched constrained fields are re-validated.
type UpdateSpotParams struct {
	Location           *geo.Point
	PinType            *model.PinType
	WillLeaveInMinutes *int
	IsPaid             *bool
	Status             *model.Status
	Title              *string
	Description        *string
}

// Update applies an owner edit.  Only the owner may update; changing the
// pin type or lease re-derives the expiry from the original creation
// instant.
func (s *SpotService) Update(ctx context.Context, id, callerID string, p UpdateSpotParams) (*model.Spot, error) {
	spot, err := s.spots.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if spot.OwnerID != callerID {
		return nil, repository.ErrForbidden
	}

	if p.Location != nil {
		if err := validateLocation(*p.Location); err != nil {
			return nil, err
		}
		spot.Latitude = p.Location.Latitude
		spot.Longitude = p.Location.Longitude
		spot.Geohash = geo.Encode(*p.Location)
	}
	if p.PinType != nil {
		if !model.IsValidPinType(*p.PinType) {
			return nil, invalid("pin_type", "must be WALK_IN or LEAVING_SOON")
		}
		spot.PinType = *p.PinType
	}
	if p.PinType != nil || p.WillLeaveInMinutes != nil {
		requested := spot.WillLeaveInMinutes
		if p.WillLeaveInMinutes != nil {
			requested = *p.WillLeaveInMinutes
		}
		minutes, err := leaseMinutes(spot.PinType, requested)
		if err != nil {
			return nil, err
		}
		spot.WillLeaveInMinutes = minutes
		spot.ExpiresAtMillis = spot.CreatedAtMillis + int64(minutes)*millisPerMinute
	}
	if p.IsPaid != nil {
		spot.IsPaid = *p.IsPaid
	}
	if p.Status != nil {
		if !model.IsValidStatus(*p.Status) {
			return nil, invalid("status", "unknown status")
		}
		spot.Status = *p.Status
	}
	if p.Title != nil {
		spot.Title = p.Title
	}
	if p.Description != nil {
		spot.Description = p.Description
	}

	if err := s.spots.Update(ctx, spot); err != nil {
		return nil, err
	}
	return spot, nil
}

// Delete removes a spot.  Owner-only hard delete.
func (s *SpotService) Delete(ctx context.Context, id, callerID string) error {
	spot, err := s.spots.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if spot.OwnerID != callerID {
		return repository.ErrForbidden
	}
	return s.spots.Delete(ctx, id)
}

// Nearby returns every effectively-active spot within radiusMeters of
// center.  The store prefilters by geohash cell cover; the exact
// haversine distance decides membership, never the cover.
func (s *SpotService) Nearby(ctx context.Context, center geo.Point, radiusMeters float64) ([]model.Spot, error) {
	if err := validateLocation(center); err != nil {
		return nil, err
	}
	if radiusMeters <= 0 {
		return nil, invalid("radius_m", "must be positive")
	}
	now := s.clk.NowMillis()
	candidates, err := s.spots.QueryActiveInCells(ctx, geo.CellCover(center, radiusMeters), now)
	if err != nil {
		return nil, err
	}
	out := make([]model.Spot, 0, len(candidates))
	for _, spot := range candidates {
		d := geo.Distance(center, geo.Point{Latitude: spot.Latitude, Longitude: spot.Longitude})
		if d <= radiusMeters {
			out = append(out, spot)
		}
	}
	return out, nil
}
