package store

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/TimurManjosov/leadgrade/internal/threshold"
	"github.com/TimurManjosov/leadgrade/internal/workspace"
)

// Options selects and configures a store.
type Options struct {
	Type   string // "memory" or "file"
	Path   string // workspace file, required for "file"
	Scale  threshold.Scale
	Policy threshold.EditPolicy
	// QualifyingTier seeds new sessions. A workspace file that already
	// exists keeps its own tier.
	QualifyingTier threshold.Tier
	Logger         zerolog.Logger
}

// NewStore creates a new store based on the given store type.
// Supported types: "memory", "file"
func NewStore(ctx context.Context, opts Options) (Store, error) {
	if opts.Scale == "" {
		opts.Scale = threshold.ScalePercent
	}

	switch opts.Type {
	case "memory":
		ms := NewMemoryStore(workspace.New(opts.Scale), opts.Policy, opts.Logger)
		if err := ms.seedTier(opts.QualifyingTier); err != nil {
			return nil, err
		}
		return ms, nil
	case "file":
		_, statErr := os.Stat(opts.Path)
		fresh := os.IsNotExist(statErr)

		fs, err := NewFileStore(ctx, opts.Path, opts.Scale, opts.Policy, opts.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open workspace: %w", err)
		}
		if fresh {
			if err := fs.seedTier(opts.QualifyingTier); err != nil {
				return nil, err
			}
		}
		return fs, nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", opts.Type)
	}
}
