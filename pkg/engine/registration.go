package engine

import (
	"context"
	"strings"

	"github.com/agentstation/dataengine/pkg/catalog"
	"github.com/agentstation/dataengine/pkg/errors"
	"github.com/agentstation/dataengine/pkg/logging"
	"github.com/agentstation/dataengine/pkg/repository"
)

// Registrar registers external sources so their objects can be reconciled.
type Registrar struct {
	registry repository.SourceRegistry
	resolver *Resolver
}

// Register stores source and returns its id. Registering a qualified name
// that is already known returns the existing id.
func (r *Registrar) Register(ctx context.Context, user string, source catalog.ExternalSource) (string, error) {
	if strings.TrimSpace(source.QualifiedName) == "" {
		return "", errors.NewValidationError("qualifiedName", source.QualifiedName, "cannot be blank")
	}
	if source.DisplayName == "" {
		source.DisplayName = source.QualifiedName
	}

	id, err := r.resolver.Resolve(ctx, user, source.QualifiedName)
	if err == nil {
		return id, nil
	}
	if !errors.IsNotFound(err) {
		return "", err
	}

	id, err = r.registry.RegisterSource(ctx, user, source)
	if errors.IsConflict(err) {
		// Registered concurrently.
		return r.resolver.Resolve(ctx, user, source.QualifiedName)
	}
	if err != nil {
		return "", err
	}

	logging.FromContext(ctx).Info().
		Str("source", source.QualifiedName).
		Str("source_id", id).
		Msg("Registered external source")
	return id, nil
}
