package secrets

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Source that has no value for a name.
var ErrNotFound = errors.New("secret not found")

// Source looks up credential values by name.
//
// Implementations in this package read environment variables and
// Kubernetes-style secret directories. Sources are consulted in order by
// the Resolver; the first one that returns a value wins.
type Source interface {
	// Lookup returns the value for name, or an error wrapping ErrNotFound.
	Lookup(ctx context.Context, name string) (string, error)

	// Name identifies the source in logs.
	Name() string
}

// Refresher is a Source that can drop whatever it has cached.
type Refresher interface {
	Source
	Refresh(ctx context.Context) error
}
