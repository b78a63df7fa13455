package persist

import (
	"context"

	"finhealth/internal/core"
)

// Ports for state persistence adapters.
type (
	// StateLoader reads the last saved snapshot. ok is false on first run.
	StateLoader interface {
		Load(ctx context.Context) (state core.AppState, ok bool, err error)
	}

	// StateSaver replaces the saved snapshot with s.
	StateSaver interface {
		Save(ctx context.Context, s core.AppState) error
	}

	StateStore interface {
		StateLoader
		StateSaver
	}
)
