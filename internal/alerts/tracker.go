package alerts

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"wxinsight/internal/models"
	"wxinsight/internal/store"
)

// DefaultTTL is how long an acknowledgement suppresses the same alert
const DefaultTTL = 7 * 24 * time.Hour

// Tracker remembers which event alerts a user has already dismissed. An
// alert is identified by location, event type and forecast date.
type Tracker struct {
	store store.Store
	ttl   time.Duration
}

// NewTracker creates a tracker; a ttl of zero uses DefaultTTL
func NewTracker(s store.Store, ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tracker{store: s, ttl: ttl}
}

// Key builds the store key for one alert
func Key(location, eventType, date string) string {
	return fmt.Sprintf("%s%s:%s", locationPrefix(location), eventType, date)
}

// locationPrefix normalises the location and escapes it so the key holds
// no separators or glob characters of its own
func locationPrefix(location string) string {
	loc := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(location)), " ", "_")
	return "ack:" + url.QueryEscape(loc) + ":"
}

func (t *Tracker) Acknowledge(ctx context.Context, location, eventType, date string) error {
	if location == "" || eventType == "" || date == "" {
		return fmt.Errorf("location, event type and date are required")
	}
	if err := t.store.Set(ctx, Key(location, eventType, date), time.Now().UTC().Format(time.RFC3339), t.ttl); err != nil {
		return fmt.Errorf("failed to acknowledge alert: %w", err)
	}
	return nil
}

func (t *Tracker) IsAcknowledged(ctx context.Context, location, eventType, date string) (bool, error) {
	_, err := t.store.Get(ctx, Key(location, eventType, date))
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check acknowledgement: %w", err)
	}
	return true, nil
}

// Clear drops an acknowledgement so the alert is shown again
func (t *Tracker) Clear(ctx context.Context, location, eventType, date string) error {
	return t.store.Delete(ctx, Key(location, eventType, date))
}

// Pending returns the events that have not been acknowledged, in their
// original order
func (t *Tracker) Pending(ctx context.Context, location string, events []models.Event) ([]models.Event, error) {
	pending := make([]models.Event, 0, len(events))
	for _, e := range events {
		acked, err := t.IsAcknowledged(ctx, location, e.Type, e.Date)
		if err != nil {
			return nil, err
		}
		if !acked {
			pending = append(pending, e)
		}
	}
	return pending, nil
}

// Acknowledgement is one live acknowledgement for a location
type Acknowledgement struct {
	EventType string `json:"event_type"`
	Date      string `json:"date"`
}

// Acknowledged lists the live acknowledgements for a location, sorted by
// event type then date
func (t *Tracker) Acknowledged(ctx context.Context, location string) ([]Acknowledgement, error) {
	prefix := locationPrefix(location)
	keys, err := t.store.Keys(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list acknowledgements: %w", err)
	}

	acks := make([]Acknowledgement, 0, len(keys))
	for _, k := range keys {
		rest := strings.TrimPrefix(k, prefix)
		i := strings.LastIndex(rest, ":")
		if i <= 0 {
			continue
		}
		acks = append(acks, Acknowledgement{EventType: rest[:i], Date: rest[i+1:]})
	}
	return acks, nil
}
