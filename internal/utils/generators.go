package utils

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewID returns a random UUID string, the ID format for every table.
func NewID() string {
	return uuid.NewString()
}

// NewDeliveryRef generates a human-readable reference for delivery notes,
// e.g. "dlv_1724500000_000042".
func NewDeliveryRef(seq int64) string {
	return fmt.Sprintf("dlv_%d_%06d", time.Now().Unix(), seq)
}
