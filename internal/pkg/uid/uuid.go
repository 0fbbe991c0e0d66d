package uid

import "github.com/google/uuid"

// UUID generates version 7 UUIDs. Their leading millisecond timestamp keeps
// idea ids in submission order inside Mongo indexes.
type UUID struct{}

// NewUUID returns a UUID generator.
func NewUUID() *UUID {
	return &UUID{}
}

// Generate returns a new UUIDv7 string. It degrades to v4 only when the
// random source fails.
func (*UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
