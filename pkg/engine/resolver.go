package engine

import (
	"context"
	"strings"
	"sync"

	"github.com/agentstation/dataengine/pkg/errors"
	"github.com/agentstation/dataengine/pkg/logging"
	"github.com/agentstation/dataengine/pkg/repository"
)

// Resolver maps an external source's declared qualified name to the id the
// repository assigned when the source was registered.
type Resolver struct {
	registry repository.SourceRegistry
	cache    *sync.Map // user + "\x00" + qualified name -> id
}

// NewResolver returns a Resolver reading from registry. With cache set,
// successful resolutions are remembered per user.
func NewResolver(registry repository.SourceRegistry, cache bool) *Resolver {
	r := &Resolver{registry: registry}
	if cache {
		r.cache = &sync.Map{}
	}
	return r
}

// Resolve returns the id of the source registered under qualifiedName.
func (r *Resolver) Resolve(ctx context.Context, user, qualifiedName string) (string, error) {
	if strings.TrimSpace(qualifiedName) == "" {
		return "", errors.NewValidationError("source", qualifiedName, "cannot be blank")
	}

	key := user + "\x00" + qualifiedName
	if r.cache != nil {
		if id, ok := r.cache.Load(key); ok {
			return id.(string), nil
		}
	}

	id, err := r.registry.ResolveSource(ctx, user, qualifiedName)
	if err != nil {
		return "", err
	}
	logging.FromContext(ctx).Trace().
		Str("source", qualifiedName).
		Str("source_id", id).
		Msg("Resolved external source")

	if r.cache != nil {
		r.cache.Store(key, id)
	}
	return id, nil
}
