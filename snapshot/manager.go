package snapshot

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Manager holds the active snapshot behind an atomic pointer. Readers take
// the snapshot once at the start of an operation and use it for the whole
// call; Swap never disturbs them.
type Manager struct {
	active atomic.Pointer[Snapshot]
	logger *slog.Logger
}

// NewManager creates a manager with the given initial snapshot. The initial
// snapshot may be nil when the process starts before data is available.
func NewManager(initial *Snapshot, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{logger: logger}
	if initial != nil {
		m.active.Store(initial)
	}
	return m
}

// Active returns the current snapshot, or nil when none has been loaded yet.
func (m *Manager) Active() *Snapshot {
	return m.active.Load()
}

// Swap installs a new snapshot and returns the previous one. The previous
// snapshot stays valid for readers that already hold it. A nil next clears
// the active snapshot.
func (m *Manager) Swap(next *Snapshot) *Snapshot {
	prev := m.active.Swap(next)
	switch {
	case next == nil:
		m.logger.Info("active snapshot cleared")
	case prev != nil:
		m.logger.Info("snapshot swapped",
			"previous_version", prev.Version(),
			"next_version", next.Version(),
			"next_id", next.ID())
	default:
		m.logger.Info("initial snapshot installed",
			"version", next.Version(), "id", next.ID())
	}
	return prev
}

// Refresh builds a new snapshot from the data directory off to the side and
// swaps it in only on success. A failed load leaves the active snapshot
// untouched.
func (m *Manager) Refresh(ctx context.Context, dir, version string) error {
	next, err := LoadDir(ctx, dir, version, m.logger)
	if err != nil {
		return err
	}
	m.Swap(next)
	return nil
}
