package ids

import (
	"github.com/google/uuid"

	"github.com/mcoot/raceboard/internal/model"
)

// Generator hands out record IDs for newly created score records
type Generator interface {
	NewID() model.RecordID
}

// UUIDGenerator implements Generator with random (v4) UUIDs
type UUIDGenerator struct{}

// New creates a new UUIDGenerator
func New() *UUIDGenerator {
	return &UUIDGenerator{}
}

// NewID returns a fresh UUID string
func (g *UUIDGenerator) NewID() model.RecordID {
	return model.RecordID(uuid.NewString())
}
