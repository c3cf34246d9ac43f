package session

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
)

// Open builds the Store named by backend ("memory", "file" or "sqlite").
func Open(ctx context.Context, backend, path string) (Store, error) {
	switch backend {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(afero.NewOsFs(), path), nil
	case "sqlite":
		return NewSQLiteStore(ctx, path)
	default:
		return nil, fmt.Errorf("unknown session backend %q", backend)
	}
}
