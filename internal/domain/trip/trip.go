package trip

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the trip lifecycle state
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusBidding   Status = "BIDDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusArrived   Status = "ARRIVED"
	StatusStarted   Status = "STARTED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// VehicleType splits trips into passenger rides and freight hauls
type VehicleType string

const (
	VehiclePassenger VehicleType = "PASSENGER"
	VehicleFreight   VehicleType = "FREIGHT"
)

// Category represents the requested vehicle class
type Category string

const (
	CategoryStandard Category = "standard"
	CategoryComfort  Category = "comfort"
	CategoryLuxury   Category = "luxury"
	CategoryVan      Category = "van"
	CategoryTruck    Category = "truck"
	CategoryLorry    Category = "lorry"
)

// transitions is the canonical state machine. A trip enters BIDDING
// implicitly when its first bid arrives and leaves PENDING/BIDDING only
// through bid acceptance or cancellation.
var transitions = map[Status][]Status{
	StatusPending:   {StatusBidding, StatusAccepted, StatusCancelled},
	StatusBidding:   {StatusAccepted, StatusCancelled},
	StatusAccepted:  {StatusArrived, StatusStarted, StatusCancelled},
	StatusArrived:   {StatusStarted, StatusCancelled},
	StatusStarted:   {StatusCompleted},
	StatusCompleted: {},
	StatusCancelled: {},
}

// OpenStatuses are the states in which a trip accepts bids
var OpenStatuses = []Status{StatusPending, StatusBidding}

// CancellableStatuses are the states from which a trip may be cancelled
var CancellableStatuses = []Status{StatusPending, StatusBidding, StatusAccepted, StatusArrived}

// ActiveStatuses are the non-terminal states
var ActiveStatuses = []Status{StatusPending, StatusBidding, StatusAccepted, StatusArrived, StatusStarted}

// Trip represents a ride or freight request
type Trip struct {
	ID                 uuid.UUID   `json:"id"`
	RiderID            uuid.UUID   `json:"rider_id"`
	DriverID           *uuid.UUID  `json:"driver_id,omitempty"`
	Status             Status      `json:"status"`
	VehicleType        VehicleType `json:"vehicle_type"`
	Category           Category    `json:"category"`
	PickupLatitude     float64     `json:"pickup_latitude"`
	PickupLongitude    float64     `json:"pickup_longitude"`
	DropoffLatitude    float64     `json:"dropoff_latitude"`
	DropoffLongitude   float64     `json:"dropoff_longitude"`
	PickupAddress      string      `json:"pickup_address,omitempty"`
	DropoffAddress     string      `json:"dropoff_address,omitempty"`
	City               string      `json:"city"`
	ProposedPrice      float64     `json:"proposed_price"`
	FinalPrice         *float64    `json:"final_price,omitempty"`
	DistanceKM         float64     `json:"distance_km"`
	DurationMinutes    int         `json:"duration_minutes"`
	Note               string      `json:"note,omitempty"`
	GuestName          string      `json:"guest_name,omitempty"`
	GuestPhone         string      `json:"guest_phone,omitempty"`
	ItemDescription    string      `json:"item_description,omitempty"`
	NeedsAssistance    bool        `json:"needs_assistance,omitempty"`
	CargoPhotoURLs     []string    `json:"cargo_photo_urls,omitempty"`
	CancellationReason string      `json:"cancellation_reason,omitempty"`
	CancelledBy        string      `json:"cancelled_by,omitempty"`
	AcceptedAt         *time.Time  `json:"accepted_at,omitempty"`
	ArrivedAt          *time.Time  `json:"arrived_at,omitempty"`
	StartedAt          *time.Time  `json:"started_at,omitempty"`
	CompletedAt        *time.Time  `json:"completed_at,omitempty"`
	CancelledAt        *time.Time  `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// IsValid validates the status
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether the state machine allows s -> to
func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsOpen reports whether the trip still accepts bids
func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusBidding
}

// IsCancellable reports whether the trip may still be cancelled
func (s Status) IsCancellable() bool {
	for _, c := range CancellableStatuses {
		if s == c {
			return true
		}
	}
	return false
}

// IsValid validates the vehicle type
func (v VehicleType) IsValid() bool {
	switch v {
	case VehiclePassenger, VehicleFreight:
		return true
	}
	return false
}

// IsValid validates the category
func (c Category) IsValid() bool {
	switch c {
	case CategoryStandard, CategoryComfort, CategoryLuxury,
		CategoryVan, CategoryTruck, CategoryLorry:
		return true
	}
	return false
}

// IsFreight reports whether the category is a freight class
func (c Category) IsFreight() bool {
	switch c {
	case CategoryVan, CategoryTruck, CategoryLorry:
		return true
	}
	return false
}

// VehicleType returns the vehicle class the category belongs to
func (c Category) VehicleType() VehicleType {
	if c.IsFreight() {
		return VehicleFreight
	}
	return VehiclePassenger
}

// IsOpen reports whether the trip still accepts bids
func (t *Trip) IsOpen() bool {
	return t.Status.IsOpen()
}

// IsTerminal reports whether the trip reached a final state
func (t *Trip) IsTerminal() bool {
	return t.Status.IsTerminal()
}

// IsParticipant reports whether the user created or drives this trip
func (t *Trip) IsParticipant(userID uuid.UUID) bool {
	if t.RiderID == userID {
		return true
	}
	return t.DriverID != nil && *t.DriverID == userID
}
