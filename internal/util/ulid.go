package util

import (
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewRunID generates a ULID string identifying one pipeline run. Run IDs are
// stamped into log lines and statistics artifacts so runs can be correlated.
func NewRunID() string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
