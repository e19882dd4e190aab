package models

import "time"

// Snapshot is the durable form of a live session used to survive the
// process being suspended or killed.
type Snapshot struct {
	Version int       `json:"version"`
	SavedAt time.Time `json:"saved_at"`
	Session Session   `json:"session"`
}

// SnapshotVersion is bumped when the snapshot layout changes incompatibly.
const SnapshotVersion = 1
