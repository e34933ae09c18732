package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ridesharing/internal/domain"
)

// Publisher fans out domain events over Redis pub/sub. Publishing is
// fire-and-forget from the caller's perspective: subscribers that are not
// listening simply miss the message.
type Publisher struct {
	client *redis.Client
}

// NewPublisher creates a new Publisher.
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// TripEvent is the payload published on trip state changes.
type TripEvent struct {
	TripID    string    `json:"tripId"`
	State     string    `json:"state"`
	RiderID   string    `json:"riderId"`
	DriverID  string    `json:"driverId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// PublishLocation publishes a location sample on the driver's channel and,
// when the sample is tied to a trip, on the trip's channel as well.
func (p *Publisher) PublishLocation(ctx context.Context, sample domain.LocationSample) error {
	payload, err := json.Marshal(sample)
	if err != nil {
		return err
	}

	if err := p.client.Publish(ctx, fmt.Sprintf("driver.%s.location", sample.DriverID), payload).Err(); err != nil {
		return err
	}

	if sample.TripID != "" {
		return p.client.Publish(ctx, fmt.Sprintf("trip.%s.location", sample.TripID), payload).Err()
	}

	return nil
}

// PublishTripEvent publishes a trip lifecycle event on the trip's channel.
func (p *Publisher) PublishTripEvent(ctx context.Context, trip *domain.Trip) error {
	payload, err := json.Marshal(TripEvent{
		TripID:    trip.ID,
		State:     string(trip.State),
		RiderID:   trip.RiderID,
		DriverID:  trip.DriverID,
		Timestamp: time.Now(),
	})
	if err != nil {
		return err
	}

	return p.client.Publish(ctx, fmt.Sprintf("trip.%s.events", trip.ID), payload).Err()
}
