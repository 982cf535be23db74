package database

import (
	"context"
	"sync"
)

// MockDatabase keeps snapshots in memory, bounded to limit entries.
type MockDatabase struct {
	mu        sync.Mutex
	limit     int
	snapshots []Snapshot
}

func NewMockDatabase() *MockDatabase {
	return &MockDatabase{limit: 1000}
}

func (db *MockDatabase) RecordSnapshot(ctx context.Context, snap Snapshot) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.snapshots = append(db.snapshots, snap)
	if over := len(db.snapshots) - db.limit; over > 0 {
		db.snapshots = append(db.snapshots[:0:0], db.snapshots[over:]...)
	}
	return nil
}

func (db *MockDatabase) RecentSnapshots(ctx context.Context, limit int) ([]Snapshot, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	start := 0
	if limit > 0 && len(db.snapshots) > limit {
		start = len(db.snapshots) - limit
	}
	out := make([]Snapshot, len(db.snapshots)-start)
	copy(out, db.snapshots[start:])
	return out, nil
}
