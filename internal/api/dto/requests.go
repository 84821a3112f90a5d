package dto

// SignupRequest registers a new account
type SignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"omitempty,oneof=rider driver"`
	City     string `json:"city" binding:"required"`
}

// LoginRequest authenticates an existing account
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// CreateTripRequest opens a new trip. Coordinate bounds are validated
// here; zero is a legal value so none of the numeric fields use
// required.
type CreateTripRequest struct {
	Category         string   `json:"category" binding:"required"`
	PickupLatitude   float64  `json:"pickup_latitude" binding:"gte=-90,lte=90"`
	PickupLongitude  float64  `json:"pickup_longitude" binding:"gte=-180,lte=180"`
	DropoffLatitude  float64  `json:"dropoff_latitude" binding:"gte=-90,lte=90"`
	DropoffLongitude float64  `json:"dropoff_longitude" binding:"gte=-180,lte=180"`
	PickupAddress    string   `json:"pickup_address"`
	DropoffAddress   string   `json:"dropoff_address"`
	City             string   `json:"city"`
	ProposedPrice    float64  `json:"proposed_price" binding:"required,gt=0"`
	DistanceKM       float64  `json:"distance_km" binding:"gte=0"`
	DurationMinutes  int      `json:"duration_minutes" binding:"gte=0"`
	Note             string   `json:"note"`
	GuestName        string   `json:"guest_name"`
	GuestPhone       string   `json:"guest_phone"`
	ItemDescription  string   `json:"item_description"`
	NeedsAssistance  bool     `json:"needs_assistance"`
	CargoPhotoURLs   []string `json:"cargo_photo_urls" binding:"omitempty,max=6,dive,url"`
}

// CancelTripRequest carries the optional cancellation reason
type CancelTripRequest struct {
	Reason string `json:"reason"`
}

// UpdateTripStatusRequest moves a trip along the lifecycle
type UpdateTripStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SubmitBidRequest places a driver's offer on an open trip
type SubmitBidRequest struct {
	OfferPrice float64 `json:"offer_price" binding:"required,gt=0"`
	Note       string  `json:"note"`
}

// AcceptBidRequest settles a trip on the chosen bid
type AcceptBidRequest struct {
	BidID string `json:"bid_id" binding:"required,uuid"`
}

// SubmitReviewRequest rates the driver after a completed trip
type SubmitReviewRequest struct {
	Rating   float64  `json:"rating" binding:"required,gte=1,lte=5"`
	Tags     []string `json:"tags" binding:"omitempty,max=10"`
	Comment  string   `json:"comment"`
	Favorite bool     `json:"favorite"`
}

// UpdateLocationRequest is a driver position ping
type UpdateLocationRequest struct {
	Latitude  float64 `json:"latitude" binding:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" binding:"gte=-180,lte=180"`
}

// SetOnlineRequest toggles driver availability
type SetOnlineRequest struct {
	Online *bool `json:"online" binding:"required"`
}

// DriverProfileRequest files the vehicle profile
type DriverProfileRequest struct {
	VehicleCategory string `json:"vehicle_category" binding:"required"`
	VehicleReg      string `json:"vehicle_reg" binding:"required"`
}

// UpdateProfileRequest edits the account profile
type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	City  string `json:"city"`
}

// SetModeRequest toggles forced rider mode on a driver account
type SetModeRequest struct {
	ForceRiderMode *bool `json:"force_rider_mode" binding:"required"`
}

// FavoriteRequest saves or unsaves a driver
type FavoriteRequest struct {
	TargetUserID string `json:"target_user_id" binding:"required,uuid"`
}

// AccountStatusRequest is the admin moderation decision
type AccountStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active suspended banned"`
	Reason string `json:"reason"`
}

// DriverApprovalRequest is the admin approval decision
type DriverApprovalRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approved rejected"`
}
