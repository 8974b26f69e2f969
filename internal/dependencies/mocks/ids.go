package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/raceboard/internal/dependencies/ids"
	"github.com/mcoot/raceboard/internal/model"
)

// MockIDs is a mock implementation of ids.Generator for testing.
// Queued IDs are handed out first, then sequential "rec-N" IDs.
type MockIDs struct {
	mu     sync.Mutex
	queued []model.RecordID
	next   int
}

// Ensure MockIDs implements Generator
var _ ids.Generator = (*MockIDs)(nil)

// NewMockIDs creates a new MockIDs
func NewMockIDs() *MockIDs {
	return &MockIDs{}
}

// NewID returns the next queued ID, or a sequential one if none remain
func (g *MockIDs) NewID() model.RecordID {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.queued) > 0 {
		id := g.queued[0]
		g.queued = g.queued[1:]
		return id
	}
	g.next++
	return model.RecordID(fmt.Sprintf("rec-%d", g.next))
}

// Queue adds IDs to be returned by NewID
func (g *MockIDs) Queue(values ...model.RecordID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queued = append(g.queued, values...)
}
