package monitoring

import (
	"fmt"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// Config holds New Relic configuration
type Config struct {
	LicenseKey string
	AppName    string
	Enabled    bool
	LogLevel   string
}

// NewRelicApp wraps the New Relic application
type NewRelicApp struct {
	*newrelic.Application
	enabled bool
}

// New creates a new New Relic application
func New(cfg Config) (*NewRelicApp, error) {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		// Return disabled app
		return &NewRelicApp{nil, false}, nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigAppLogForwardingEnabled(true),
		newrelic.ConfigDistributedTracerEnabled(true),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create New Relic application: %w", err)
	}

	return &NewRelicApp{app, true}, nil
}

// StartTransaction starts a new transaction
func (nr *NewRelicApp) StartTransaction(name string) *newrelic.Transaction {
	if !nr.enabled || nr.Application == nil {
		return nil
	}
	return nr.Application.StartTransaction(name)
}

// RecordCustomEvent records a custom event
func (nr *NewRelicApp) RecordCustomEvent(eventType string, params map[string]interface{}) {
	if !nr.enabled || nr.Application == nil {
		return
	}
	nr.Application.RecordCustomEvent(eventType, params)
}

// RecordCustomMetric records a custom metric
func (nr *NewRelicApp) RecordCustomMetric(name string, value float64) {
	if !nr.enabled || nr.Application == nil {
		return
	}
	nr.Application.RecordCustomMetric(name, value)
}

// Shutdown gracefully shuts down the New Relic application
func (nr *NewRelicApp) Shutdown(timeout time.Duration) {
	if !nr.enabled || nr.Application == nil {
		return
	}
	nr.Application.Shutdown(timeout)
}

// Custom metric helpers

// RecordTripRequested records a new trip request
func (nr *NewRelicApp) RecordTripRequested(category, city string) {
	nr.RecordCustomEvent("TripRequested", map[string]interface{}{
		"category":  category,
		"city":      city,
		"timestamp": time.Now().Unix(),
	})
}

// RecordTripCompleted records trip completion
func (nr *NewRelicApp) RecordTripCompleted(tripID string, finalPrice float64) {
	nr.RecordCustomEvent("TripCompleted", map[string]interface{}{
		"trip_id":     tripID,
		"final_price": finalPrice,
	})
}

// RecordTripCancelled records trip cancellation and the stage it happened at
func (nr *NewRelicApp) RecordTripCancelled(tripID, stage string) {
	nr.RecordCustomEvent("TripCancelled", map[string]interface{}{
		"trip_id": tripID,
		"stage":   stage,
	})
}

// RecordBidSubmitted records a driver bid
func (nr *NewRelicApp) RecordBidSubmitted(city string, amount float64) {
	nr.RecordCustomEvent("BidSubmitted", map[string]interface{}{
		"city":   city,
		"amount": amount,
	})
}

// RecordBidAccepted records a winning bid
func (nr *NewRelicApp) RecordBidAccepted(tripID string, amount float64) {
	nr.RecordCustomEvent("BidAccepted", map[string]interface{}{
		"trip_id": tripID,
		"amount":  amount,
	})
}

// RecordReviewSubmitted records a post-trip review
func (nr *NewRelicApp) RecordReviewSubmitted(rating float64) {
	nr.RecordCustomMetric("custom/review/rating", rating)
}

// RecordLocationUpdate records a driver location update
func (nr *NewRelicApp) RecordLocationUpdate() {
	nr.RecordCustomMetric("custom/driver/location_update", 1)
}

// RecordProximityLatency records nearby-trip query latency
func (nr *NewRelicApp) RecordProximityLatency(latencyMs float64) {
	nr.RecordCustomMetric("custom/proximity/query_latency_ms", latencyMs)
}

// RecordDatabasePoolStats records database connection pool statistics
func (nr *NewRelicApp) RecordDatabasePoolStats(open, idle, inUse int) {
	nr.RecordCustomMetric("custom/db/open_connections", float64(open))
	nr.RecordCustomMetric("custom/db/idle_connections", float64(idle))
	nr.RecordCustomMetric("custom/db/in_use_connections", float64(inUse))
}

// RecordRedisPoolStats records Redis pool statistics
func (nr *NewRelicApp) RecordRedisPoolStats(stats map[string]interface{}) {
	if hits, ok := stats["hits"].(uint32); ok {
		nr.RecordCustomMetric("custom/redis/cache_hits", float64(hits))
	}
	if misses, ok := stats["misses"].(uint32); ok {
		nr.RecordCustomMetric("custom/redis/cache_misses", float64(misses))
	}
	if timeouts, ok := stats["timeouts"].(uint32); ok {
		nr.RecordCustomMetric("custom/redis/timeouts", float64(timeouts))
	}
}

// IsEnabled returns whether New Relic is enabled
func (nr *NewRelicApp) IsEnabled() bool {
	return nr.enabled
}
