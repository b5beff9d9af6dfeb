package store

import (
	"context"
	"errors"
	"fmt"
)

const premiumPrefix = "premium:"

// SetPremium records whether a device has the premium tier. Clearing the flag
// removes the key.
func SetPremium(ctx context.Context, s Store, deviceID string, premium bool) error {
	if deviceID == "" {
		return fmt.Errorf("device id is required")
	}
	key := premiumPrefix + deviceID
	if !premium {
		return s.Delete(ctx, key)
	}
	return s.Set(ctx, key, "1", 0)
}

// IsPremium reports the premium flag for a device. Unknown devices are not
// premium.
func IsPremium(ctx context.Context, s Store, deviceID string) (bool, error) {
	if deviceID == "" {
		return false, nil
	}
	val, err := s.Get(ctx, premiumPrefix+deviceID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return val == "1", nil
}
