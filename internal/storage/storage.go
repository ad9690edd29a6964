package storage

import (
	"context"
	"errors"
)

// ErrArtifactNotFound is returned by Load when no artifact exists under
// the requested key.
var ErrArtifactNotFound = errors.New("artifact not found")

// ArtifactStore captures the minimal persistence operations the model
// lifecycle needs. Keys are slash-separated relative paths.
type ArtifactStore interface {
	Save(ctx context.Context, key string, data []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
}
