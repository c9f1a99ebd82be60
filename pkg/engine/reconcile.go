package engine

import (
	"context"

	"github.com/agentstation/dataengine/pkg/catalog"
	"github.com/agentstation/dataengine/pkg/errors"
	"github.com/agentstation/dataengine/pkg/logging"
	"github.com/agentstation/dataengine/pkg/repository"
)

// Action records which branch a reconcile took.
type Action string

const (
	// ActionCreated means the object was not found and has been created.
	ActionCreated Action = "created"
	// ActionUpdated means an existing object had its attributes replaced.
	ActionUpdated Action = "updated"
)

// Result describes the outcome of reconciling one payload.
type Result struct {
	ID            string       `json:"id" yaml:"id"`
	Kind          catalog.Kind `json:"kind" yaml:"kind"`
	QualifiedName string       `json:"qualified_name" yaml:"qualified_name"`
	Action        Action       `json:"action" yaml:"action"`
	Children      []Result     `json:"children,omitempty" yaml:"children,omitempty"`
}

// reconciler implements the create-or-update algorithm shared by every kind.
type reconciler struct {
	repo       repository.Repository
	resolver   *Resolver
	lookup     *Lookup
	strategies map[catalog.Kind]strategy
}

// reconcile runs the full algorithm for a single payload.
func (r *reconciler) reconcile(ctx context.Context, user string, p catalog.Payload, sourceQualifiedName string) (Result, error) {
	if err := r.validate(p, false); err != nil {
		return Result{}, err
	}
	sourceID, err := r.resolver.Resolve(ctx, user, sourceQualifiedName)
	if err != nil {
		return Result{}, err
	}
	ctx = logging.WithUser(logging.WithSource(ctx, sourceQualifiedName), user)
	return r.apply(ctx, user, p, sourceID, "")
}

// apply reconciles a validated payload. parentID is set when p is a
// cascaded child whose parent has just been reconciled.
func (r *reconciler) apply(ctx context.Context, user string, p catalog.Payload, sourceID, parentID string) (Result, error) {
	s := r.strategies[p.Kind]
	logger := logging.FromContext(ctx).With().
		Str("kind", p.Kind.String()).
		Str("qualified_name", p.QualifiedName).
		Logger()

	if s.hasParent() && parentID == "" {
		parent, found, err := r.lookup.Find(ctx, user, p.ParentQualifiedName, s.parentKind)
		if err != nil {
			return Result{}, err
		}
		if !found {
			return Result{}, errors.NewNotFoundError(s.parentKind.String(), p.ParentQualifiedName)
		}
		parentID = parent.ID
	}

	existing, found, err := r.lookup.Find(ctx, user, p.QualifiedName, p.Kind)
	if err != nil {
		return Result{}, err
	}

	result := Result{Kind: p.Kind, QualifiedName: p.QualifiedName}
	if !found {
		id, err := r.create(ctx, user, s, p, sourceID, parentID)
		switch {
		case err == nil:
			result.ID = id
			result.Action = ActionCreated
			logger.Info().Str("id", id).Msg("Created object")
		case errors.IsConflict(err):
			// Another writer created it between our lookup and create.
			existing, found, err = r.lookup.Find(ctx, user, p.QualifiedName, p.Kind)
			if err != nil {
				return Result{}, err
			}
			if !found {
				return Result{}, errors.NewConflictError(p.Kind.String(), p.QualifiedName)
			}
			logger.Debug().Str("id", existing.ID).Msg("Create conflicted, retrying as update")
		default:
			return Result{}, err
		}
	}

	if found {
		if s.hasParent() && existing.ParentID != parentID {
			logger.Warn().
				Str("parent_id", existing.ParentID).
				Str("declared_parent_id", parentID).
				Msg("Ignoring parent change on update")
		}
		if err := r.repo.Update(ctx, user, existing.ID, p.DisplayName, p.Properties); err != nil {
			return Result{}, err
		}
		// A create whose relationship write failed leaves an unlinked
		// object behind. Re-asserting the stored parent edge repairs it.
		if s.hasParent() && existing.ParentID != "" {
			rel := catalog.Relationship{Kind: s.relationship, FromID: existing.ParentID, ToID: existing.ID}
			// A purged parent has no edge left to repair.
			if err := r.repo.CreateRelationship(ctx, user, rel); err != nil && !errors.IsNotFound(err) {
				return Result{}, err
			}
		}
		result.ID = existing.ID
		result.Action = ActionUpdated
		logger.Debug().Str("id", existing.ID).Msg("Updated object")
	}

	// Children are added or updated, never removed.
	for _, child := range p.Fields {
		childResult, err := r.apply(ctx, user, child, sourceID, result.ID)
		if err != nil {
			return result, err
		}
		result.Children = append(result.Children, childResult)
	}
	return result, nil
}

// create stores a new object and links it to its parent.
func (r *reconciler) create(ctx context.Context, user string, s strategy, p catalog.Payload, sourceID, parentID string) (string, error) {
	id, err := r.repo.Create(ctx, user, catalog.Object{
		Kind:           p.Kind,
		QualifiedName:  p.QualifiedName,
		DisplayName:    p.DisplayName,
		Properties:     p.Properties.Clone(),
		OwningSourceID: sourceID,
		ParentID:       parentID,
	})
	if err != nil {
		return "", err
	}

	if s.hasParent() {
		rel := catalog.Relationship{Kind: s.relationship, FromID: parentID, ToID: id}
		if err := r.repo.CreateRelationship(ctx, user, rel); err != nil {
			return "", err
		}
	}
	return id, nil
}
