// Package redis implements equipment reservation holds: a SetNX key with a
// TTL claims one equipment item for an event while the assignment is being
// confirmed in the database. Expired holds are picked up by the keyspace
// subscription in main and released.
package redis

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const HoldKeyPrefix = "equipment_hold:"

type Holds struct {
	Client *redis.Client
	Logger *log.Logger
}

func NewHolds(client *redis.Client) *Holds {
	return &Holds{
		Client: client,
		Logger: log.Default(),
	}
}

// holdDuration reads the hold TTL from the environment, defaulting to 15
// minutes.
func (h *Holds) holdDuration() time.Duration {
	defaultDuration := 15 * time.Minute

	ttlStr := os.Getenv("EQUIPMENT_HOLD_TTL_MINUTES")
	if ttlStr == "" {
		return defaultDuration
	}

	ttlMin, err := strconv.Atoi(ttlStr)
	if err != nil {
		h.Logger.Println("REDIS: Invalid EQUIPMENT_HOLD_TTL_MINUTES value '" + ttlStr + "', using default 15 minutes")
		return defaultDuration
	}
	return time.Duration(ttlMin) * time.Minute
}

// CheckAvailability reports whether an item is free of holds without
// claiming it.
func (h *Holds) CheckAvailability(equipmentID string) (bool, error) {
	_, err := h.Client.Get(context.Background(), HoldKeyPrefix+equipmentID).Result()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// Hold claims one equipment item for a usage with the default TTL.
// Returns false when another usage already holds it.
func (h *Holds) Hold(equipmentID, usageID string) (bool, error) {
	return h.HoldFor(equipmentID, usageID, 0)
}

// HoldFor claims an item for an explicit duration; d <= 0 falls back to
// the default TTL. The assignment service sets d to the booked window so
// the hold expires when the checkout ends.
func (h *Holds) HoldFor(equipmentID, usageID string, d time.Duration) (bool, error) {
	if d <= 0 {
		d = h.holdDuration()
	}
	key := HoldKeyPrefix + equipmentID
	return h.Client.SetNX(context.Background(), key, usageID, d).Result()
}

// Release drops a hold, but only when it belongs to the given usage so a
// late release cannot clobber a newer hold.
func (h *Holds) Release(equipmentID, usageID string) error {
	ctx := context.Background()
	key := HoldKeyPrefix + equipmentID

	val, err := h.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already released or expired
	}
	if err != nil {
		return err
	}
	if val == usageID {
		_, err := h.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}

// HoldMany claims several items atomically from the caller's point of
// view: on any failure every hold taken so far is released.
func (h *Holds) HoldMany(equipmentIDs []string, usageID string) (bool, error) {
	held := []string{}
	for _, id := range equipmentIDs {
		ok, err := h.Hold(id, usageID)
		if err != nil {
			for _, prev := range held {
				_ = h.Release(prev, usageID)
			}
			return false, err
		}
		if !ok {
			for _, prev := range held {
				_ = h.Release(prev, usageID)
			}
			return false, nil
		}
		held = append(held, id)
	}
	return true, nil
}

// ReleaseMany releases a set of holds, returning the first error seen.
func (h *Holds) ReleaseMany(equipmentIDs []string, usageID string) error {
	var firstErr error
	for _, id := range equipmentIDs {
		if err := h.Release(id, usageID); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// UsageForHold returns the usage ID currently holding an item, or "".
func (h *Holds) UsageForHold(equipmentID string) (string, error) {
	val, err := h.Client.Get(context.Background(), HoldKeyPrefix+equipmentID).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read hold for %s: %w", equipmentID, err)
	}
	return val, nil
}
