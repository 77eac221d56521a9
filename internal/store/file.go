package store

import (
	"context"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"github.com/TimurManjosov/leadgrade/internal/threshold"
	"github.com/TimurManjosov/leadgrade/internal/workspace"
)

// FileStore is a MemoryStore that writes the workspace file after every
// successful mutation. A failed write rolls the mutation back.
//
// Several processes may share one file. Before every read and every mutation
// the store compares the file with what it last loaded or wrote and reloads
// it when another writer replaced it, so edits are applied on top of the
// latest saved copy.
type FileStore struct {
	*MemoryStore
	path  string
	scale threshold.Scale
	sum   uint64
}

// NewFileStore loads the workspace at path, or starts an empty one when the
// file does not exist yet.
func NewFileStore(ctx context.Context, path string, scale threshold.Scale, policy threshold.EditPolicy, logger zerolog.Logger) (*FileStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fs := &FileStore{path: path, scale: scale}
	fs.MemoryStore = NewMemoryStore(nil, policy, logger)
	ws, err := fs.load()
	if err != nil {
		return nil, err
	}
	if ws == nil {
		ws = workspace.New(scale)
	}
	fs.ws = ws
	fs.observe()
	fs.persist = fs.save
	fs.reload = fs.load
	logger.Debug().Str("path", path).Int("leads", len(ws.Leads)).Msg("workspace loaded")
	return fs, nil
}

// Path returns the workspace file path.
func (f *FileStore) Path() string { return f.path }

// load reads the file and decodes it when its content differs from the last
// copy this store saw. A missing or unchanged file yields nil.
func (f *FileStore) load() (*workspace.Workspace, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read workspace file: %w", err)
	}
	sum := xxhash.Sum64(data)
	if sum == f.sum {
		return nil, nil
	}
	ws, err := workspace.Decode(data, f.scale, f.logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.path, err)
	}
	if f.sum != 0 {
		f.logger.Debug().Str("path", f.path).Msg("workspace changed on disk, reloaded")
	}
	f.sum = sum
	return ws, nil
}

func (f *FileStore) save(ws *workspace.Workspace) error {
	data, err := workspace.Encode(ws)
	if err != nil {
		return err
	}
	if err := workspace.WriteFile(f.path, data); err != nil {
		return err
	}
	f.sum = xxhash.Sum64(data)
	return nil
}
