package service

import (
	"context"
	"log"
	"time"

	"ridesharing/internal/domain"
	"ridesharing/internal/observability"
	"ridesharing/internal/redis"
	"ridesharing/internal/tracker"
)

// LocationService fronts the in-memory tracker and broadcasts accepted
// samples over the event publisher.
type LocationService struct {
	tracker   *tracker.Tracker
	publisher redis.PublisherInterface
}

// NewLocationService creates a new LocationService.
func NewLocationService(trk *tracker.Tracker, publisher redis.PublisherInterface) *LocationService {
	return &LocationService{
		tracker:   trk,
		publisher: publisher,
	}
}

// Ingest records a location sample. Returns whether the sample was accepted
// by the tracker's noise gate. Accepted samples are broadcast; broadcast
// failures are logged, never propagated.
func (s *LocationService) Ingest(ctx context.Context, sample domain.LocationSample) (bool, error) {
	if sample.DriverID == "" {
		return false, ErrInvalidDriverID
	}
	if !sample.Point.Complete() {
		return false, ErrInvalidLocation
	}
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now()
	}

	accepted := s.tracker.Ingest(sample)
	if accepted {
		observability.LocationSamplesAccepted.Inc()
	} else {
		observability.LocationSamplesDropped.Inc()
	}
	if accepted && s.publisher != nil {
		if err := s.publisher.PublishLocation(ctx, sample); err != nil {
			log.Printf("location publish failed for driver %s: %v", sample.DriverID, err)
		}
	}

	return accepted, nil
}

// Latest returns the driver's most recent accepted sample.
func (s *LocationService) Latest(driverID string) (domain.LocationSample, bool, error) {
	if driverID == "" {
		return domain.LocationSample{}, false, ErrInvalidDriverID
	}
	sample, ok := s.tracker.Latest(driverID)
	return sample, ok, nil
}

// History returns up to limit of the driver's accepted samples, oldest first.
func (s *LocationService) History(driverID string, limit int) ([]domain.LocationSample, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return s.tracker.History(driverID, limit), nil
}

// ActiveDrivers returns the drivers that reported within the window.
// A non-positive window uses the tracker default.
func (s *LocationService) ActiveDrivers(window time.Duration) []string {
	if window <= 0 {
		window = tracker.DefaultActiveWindow
	}
	return s.tracker.ActiveDrivers(window)
}

// Remove drops all tracked state for a driver going offline.
func (s *LocationService) Remove(driverID string) error {
	if driverID == "" {
		return ErrInvalidDriverID
	}
	s.tracker.Remove(driverID)
	return nil
}

// Stats summarizes tracker contents.
func (s *LocationService) Stats() tracker.Stats {
	return s.tracker.Stats()
}
