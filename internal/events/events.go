package events

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Type identifies what happened
type Type string

const (
	TypeTripRequested  Type = "trip_requested"
	TypeTripUpdated    Type = "trip_updated"
	TypeTripCancelled  Type = "trip_cancelled"
	TypeBidPlaced      Type = "bid_placed"
	TypeBidAccepted    Type = "bid_accepted"
	TypeBidRejected    Type = "bid_rejected"
	TypeReviewReceived Type = "review_received"
	TypeDriverStatus   Type = "driver_status"
	TypeDriverLocation Type = "driver_location"
)

// Topic helpers. Topics are {scope}:{entity}:{key}.

// TopicCityTrips is where open-trip activity for a city is announced
func TopicCityTrips(city string) string {
	return fmt.Sprintf("city:trips:%s", city)
}

// TopicCityDrivers is where driver presence for a city is announced
func TopicCityDrivers(city string) string {
	return fmt.Sprintf("city:drivers:%s", city)
}

// TopicTrip carries every event of a single trip
func TopicTrip(id uuid.UUID) string {
	return fmt.Sprintf("trip:events:%s", id)
}

// TopicUser carries events addressed to a single user
func TopicUser(id uuid.UUID) string {
	return fmt.Sprintf("user:events:%s", id)
}

// RoutingKey converts a topic into an AMQP routing key
func RoutingKey(topic string) string {
	return strings.ReplaceAll(topic, ":", ".")
}
