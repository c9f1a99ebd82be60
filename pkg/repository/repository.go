// Package repository defines the contract between the reconciliation engine
// and the metadata repository that stores the catalog.
//
// The engine never holds catalog state of its own. Every read and write is a
// call through one of these interfaces, and every implementation must enforce
// uniqueness of (kind, qualified name) among live objects by returning a
// ConflictError from Create.
package repository

import (
	"context"

	"github.com/agentstation/dataengine/pkg/catalog"
	"github.com/agentstation/dataengine/pkg/errors"
)

// SourceRegistry resolves and registers external sources.
type SourceRegistry interface {
	// ResolveSource returns the id of the source registered under
	// qualifiedName, or a NotFoundError.
	ResolveSource(ctx context.Context, user, qualifiedName string) (string, error)

	// RegisterSource stores a new source and returns its id. Registering a
	// qualified name that already exists returns a ConflictError.
	RegisterSource(ctx context.Context, user string, source catalog.ExternalSource) (string, error)

	// ListSources returns every registered source ordered by qualified name.
	ListSources(ctx context.Context, user string) ([]catalog.ExternalSource, error)
}

// Finder reads catalogued objects.
type Finder interface {
	// FindByQualifiedName returns the object of the given kind whose
	// qualified name matches exactly. The boolean is false when no such
	// object exists. Soft-deleted objects are only visible with IncludeDeleted.
	FindByQualifiedName(ctx context.Context, user, qualifiedName string, kind catalog.Kind, opts ...FindOption) (catalog.Object, bool, error)

	// Get returns the object with the given id, or a NotFoundError.
	// Soft-deleted objects are only visible with IncludeDeleted.
	Get(ctx context.Context, user, id string, opts ...FindOption) (catalog.Object, error)

	// List returns every object of the given kind ordered by qualified name.
	List(ctx context.Context, user string, kind catalog.Kind, opts ...FindOption) ([]catalog.Object, error)

	// Relationships returns every relationship the object takes part in,
	// as either end.
	Relationships(ctx context.Context, user, id string) ([]catalog.Relationship, error)
}

// Writer mutates catalogued objects.
type Writer interface {
	// Create stores a new object and returns its repository-assigned id.
	// Any ID on obj is ignored. Fails with ConflictError when a live object
	// of the same kind and qualified name exists.
	Create(ctx context.Context, user string, obj catalog.Object) (string, error)

	// Update replaces the display name and properties of an existing live
	// object. Fails with NotFoundError if the id is absent.
	Update(ctx context.Context, user, id, displayName string, props catalog.Properties) error

	// CreateRelationship links two objects. Creating a relationship that
	// already exists is a no-op.
	CreateRelationship(ctx context.Context, user string, rel catalog.Relationship) error

	// Remove deletes an object with the given semantic. Fails with
	// UnsupportedOperationError when the semantic cannot be honoured for
	// the object, and NotFoundError when the id is absent.
	Remove(ctx context.Context, user, id string, semantic catalog.DeleteSemantic) error
}

// Repository is the full collaborator contract.
type Repository interface {
	SourceRegistry
	Finder
	Writer
}

// FindOptions holds the options for a read.
type FindOptions struct {
	IncludeDeleted bool
}

// FindOption configures a read.
type FindOption func(*FindOptions)

// IncludeDeleted makes soft-deleted objects visible to the read.
func IncludeDeleted() FindOption {
	return func(o *FindOptions) {
		o.IncludeDeleted = true
	}
}

// ApplyFindOptions folds opts into a FindOptions value.
func ApplyFindOptions(opts ...FindOption) FindOptions {
	var o FindOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Authorizer decides whether user may perform operation. It returns an
// AuthorizationError to refuse.
type Authorizer func(user, operation string) error

// AllowAll is the default Authorizer.
func AllowAll(string, string) error {
	return nil
}

// AllowUsers returns an Authorizer that only admits the listed users.
// With no users it admits everyone.
func AllowUsers(users ...string) Authorizer {
	if len(users) == 0 {
		return AllowAll
	}
	allowed := make(map[string]bool, len(users))
	for _, u := range users {
		allowed[u] = true
	}
	return func(user, operation string) error {
		if allowed[user] {
			return nil
		}
		return errors.NewAuthorizationError(user, operation, "user is not permitted on this repository")
	}
}
