package engine

import (
	"context"

	"github.com/agentstation/dataengine/pkg/catalog"
	"github.com/agentstation/dataengine/pkg/repository"
)

// Lookup answers whether an object with a given kind and qualified name
// exists. Matching is exact and case-sensitive; it never writes.
type Lookup struct {
	finder repository.Finder
}

// NewLookup returns a Lookup reading from finder.
func NewLookup(finder repository.Finder) *Lookup {
	return &Lookup{finder: finder}
}

// Find returns the live object of kind named qualifiedName.
func (l *Lookup) Find(ctx context.Context, user, qualifiedName string, kind catalog.Kind) (catalog.Object, bool, error) {
	return l.finder.FindByQualifiedName(ctx, user, qualifiedName, kind)
}

// FindAny is Find including soft-deleted objects, for audit and history.
func (l *Lookup) FindAny(ctx context.Context, user, qualifiedName string, kind catalog.Kind) (catalog.Object, bool, error) {
	return l.finder.FindByQualifiedName(ctx, user, qualifiedName, kind, repository.IncludeDeleted())
}
