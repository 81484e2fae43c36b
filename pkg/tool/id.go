package tool

import "github.com/google/uuid"

// GenerateUUIDV7 returns a time-ordered UUID, used as primary key for
// append-only audit rows.
func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// GenerateTraceID returns a random ID for request tracing.
func GenerateTraceID() string {
	return uuid.New().String()
}
