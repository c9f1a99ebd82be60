package engine

import (
	"context"
	"fmt"

	"github.com/agentstation/dataengine/pkg/catalog"
	"github.com/agentstation/dataengine/pkg/errors"
	"github.com/agentstation/dataengine/pkg/logging"
	"github.com/agentstation/dataengine/pkg/repository"
)

// Remover validates delete requests before handing them to the repository.
// It never cascades: removing a SchemaType leaves its Fields in place.
type Remover struct {
	repo      repository.Repository
	resolver  *Resolver
	lookup    *Lookup
	semantics map[catalog.Kind]map[catalog.DeleteSemantic]bool
}

// Remove deletes the object with the given id on behalf of the named source.
// qualifiedName must match the stored object. Soft delete leaves a tombstone
// visible to Lookup.FindAny; hard delete purges the object and its
// relationships and is refused while the object has live dependents.
func (r *Remover) Remove(ctx context.Context, user, id, qualifiedName, sourceQualifiedName string, semantic catalog.DeleteSemantic) error {
	if _, err := r.resolver.Resolve(ctx, user, sourceQualifiedName); err != nil {
		return err
	}
	if !semantic.Valid() {
		return errors.NewUnsupportedOperationError("remove", "object", id,
			fmt.Sprintf("unknown delete semantic %q", semantic))
	}

	target, err := r.repo.Get(ctx, user, id, repository.IncludeDeleted())
	if err != nil {
		return errors.WrapResource("remove", "object", qualifiedName, err)
	}
	if target.QualifiedName != qualifiedName {
		return errors.NewValidationError("qualifiedName", qualifiedName,
			fmt.Sprintf("object %s is %s", id, target.QualifiedName))
	}
	if !r.semantics[target.Kind][semantic] {
		return errors.NewUnsupportedOperationError(string(semantic)+" delete", target.Kind.String(), id,
			fmt.Sprintf("%s delete is disabled for %s", semantic, target.Kind))
	}

	if semantic == catalog.DeleteHard {
		n, err := r.liveDependents(ctx, user, id)
		if err != nil {
			return errors.WrapResource("remove", target.Kind.String(), qualifiedName, err)
		}
		if n > 0 {
			return errors.NewUnsupportedOperationError("hard delete", target.Kind.String(), id,
				fmt.Sprintf("object has %d live dependents", n))
		}
	}

	if err := r.repo.Remove(ctx, user, id, semantic); err != nil {
		return errors.WrapResource("remove", target.Kind.String(), qualifiedName, err)
	}
	logging.FromContext(ctx).Info().
		Str("source", sourceQualifiedName).
		Str("kind", target.Kind.String()).
		Str("qualified_name", qualifiedName).
		Str("id", id).
		Str("semantic", string(semantic)).
		Msg("Removed object")
	return nil
}

// RemoveByQualifiedName finds the object of kind named qualifiedName,
// tombstones included, and removes it with Remove.
func (r *Remover) RemoveByQualifiedName(ctx context.Context, user string, kind catalog.Kind, qualifiedName, sourceQualifiedName string, semantic catalog.DeleteSemantic) error {
	obj, found, err := r.lookup.FindAny(ctx, user, qualifiedName, kind)
	if err != nil {
		return err
	}
	if !found {
		return errors.NewNotFoundError(kind.String(), qualifiedName)
	}
	return r.Remove(ctx, user, obj.ID, qualifiedName, sourceQualifiedName, semantic)
}

// liveDependents counts the live children of id.
func (r *Remover) liveDependents(ctx context.Context, user, id string) (int, error) {
	rels, err := r.repo.Relationships(ctx, user, id)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, rel := range rels {
		if rel.FromID != id {
			continue
		}
		_, err := r.repo.Get(ctx, user, rel.ToID)
		switch {
		case err == nil:
			n++
		case !errors.IsNotFound(err):
			return 0, err
		}
	}
	return n, nil
}
