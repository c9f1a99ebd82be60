// Package memory provides a concurrent safe, in-memory repository.
//
// It is the reference backend for the reconciliation engine: every
// constraint the repository contract demands is enforced under a single
// RWMutex, which makes it suitable for tests, for the CLI (together with
// the YAML snapshot in persistence.go) and as a behavioural model for other
// backends.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/agentstation/utc"
	"github.com/google/uuid"

	"github.com/agentstation/dataengine/pkg/catalog"
	"github.com/agentstation/dataengine/pkg/errors"
	"github.com/agentstation/dataengine/pkg/repository"
)

// Compile-time contract assertion.
var _ repository.Repository = (*Repository)(nil)

// Repository is an in-memory implementation of repository.Repository.
type Repository struct {
	mu sync.RWMutex

	sources      map[string]catalog.ExternalSource // id -> source
	sourceByName map[string]string                 // qualified name -> id

	objects map[string]*catalog.Object       // id -> object, including tombstones
	live    map[catalog.Kind]map[string]string // kind -> qualified name -> id

	relationships map[catalog.Relationship]struct{}

	authorize repository.Authorizer
	newID     func() string
	now       func() utc.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithAuthorizer installs the check run before every operation.
func WithAuthorizer(fn repository.Authorizer) Option {
	return func(r *Repository) {
		if fn != nil {
			r.authorize = fn
		}
	}
}

// WithAllowedUsers restricts every operation to the given users.
func WithAllowedUsers(users ...string) Option {
	return WithAuthorizer(repository.AllowUsers(users...))
}

// WithIDGenerator replaces the uuid-based id generator.
func WithIDGenerator(fn func() string) Option {
	return func(r *Repository) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// WithClock replaces the wall clock used for timestamps.
func WithClock(fn func() utc.Time) Option {
	return func(r *Repository) {
		if fn != nil {
			r.now = fn
		}
	}
}

// New creates an empty repository.
func New(opts ...Option) *Repository {
	r := &Repository{
		sources:       make(map[string]catalog.ExternalSource),
		sourceByName:  make(map[string]string),
		objects:       make(map[string]*catalog.Object),
		live:          make(map[catalog.Kind]map[string]string),
		relationships: make(map[catalog.Relationship]struct{}),
		authorize:     repository.AllowAll,
		newID:         uuid.NewString,
		now:           utc.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveSource implements repository.SourceRegistry.
func (r *Repository) ResolveSource(_ context.Context, user, qualifiedName string) (string, error) {
	if err := r.authorize(user, "resolve source"); err != nil {
		return "", err
	}

	r.mu.RLock()
	id, ok := r.sourceByName[qualifiedName]
	r.mu.RUnlock()
	if !ok {
		return "", errors.NewNotFoundError("source", qualifiedName)
	}
	return id, nil
}

// RegisterSource implements repository.SourceRegistry.
func (r *Repository) RegisterSource(_ context.Context, user string, source catalog.ExternalSource) (string, error) {
	if err := r.authorize(user, "register source"); err != nil {
		return "", err
	}
	if strings.TrimSpace(source.QualifiedName) == "" {
		return "", errors.NewValidationError("qualifiedName", source.QualifiedName, "cannot be blank")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sourceByName[source.QualifiedName]; exists {
		return "", errors.NewConflictError("source", source.QualifiedName)
	}

	source.ID = r.newID()
	source.CreatedAt = r.now()
	r.sources[source.ID] = source
	r.sourceByName[source.QualifiedName] = source.ID
	return source.ID, nil
}

// ListSources implements repository.SourceRegistry.
func (r *Repository) ListSources(_ context.Context, user string) ([]catalog.ExternalSource, error) {
	if err := r.authorize(user, "list sources"); err != nil {
		return nil, err
	}

	r.mu.RLock()
	result := make([]catalog.ExternalSource, 0, len(r.sources))
	for _, s := range r.sources {
		result = append(result, s)
	}
	r.mu.RUnlock()

	slices.SortFunc(result, func(a, b catalog.ExternalSource) int {
		return strings.Compare(a.QualifiedName, b.QualifiedName)
	})
	return result, nil
}

// FindByQualifiedName implements repository.Finder.
func (r *Repository) FindByQualifiedName(_ context.Context, user, qualifiedName string, kind catalog.Kind, opts ...repository.FindOption) (catalog.Object, bool, error) {
	if err := r.authorize(user, "find"); err != nil {
		return catalog.Object{}, false, err
	}
	options := repository.ApplyFindOptions(opts...)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if id, ok := r.live[kind][qualifiedName]; ok {
		return r.objects[id].Clone(), true, nil
	}
	if !options.IncludeDeleted {
		return catalog.Object{}, false, nil
	}

	// Several tombstones may share a qualified name; report the latest.
	var latest *catalog.Object
	for _, obj := range r.objects {
		if obj.Kind != kind || obj.QualifiedName != qualifiedName {
			continue
		}
		if latest == nil || obj.DeletedAt.After(*latest.DeletedAt) {
			latest = obj
		}
	}
	if latest == nil {
		return catalog.Object{}, false, nil
	}
	return latest.Clone(), true, nil
}

// Get implements repository.Finder.
func (r *Repository) Get(_ context.Context, user, id string, opts ...repository.FindOption) (catalog.Object, error) {
	if err := r.authorize(user, "get"); err != nil {
		return catalog.Object{}, err
	}
	options := repository.ApplyFindOptions(opts...)

	r.mu.RLock()
	defer r.mu.RUnlock()

	obj, ok := r.objects[id]
	if !ok || (obj.Deleted() && !options.IncludeDeleted) {
		return catalog.Object{}, errors.NewNotFoundError("object", id)
	}
	return obj.Clone(), nil
}

// List implements repository.Finder.
func (r *Repository) List(_ context.Context, user string, kind catalog.Kind, opts ...repository.FindOption) ([]catalog.Object, error) {
	if err := r.authorize(user, "list"); err != nil {
		return nil, err
	}
	options := repository.ApplyFindOptions(opts...)

	r.mu.RLock()
	result := make([]catalog.Object, 0, len(r.live[kind]))
	for _, obj := range r.objects {
		if obj.Kind != kind || (obj.Deleted() && !options.IncludeDeleted) {
			continue
		}
		result = append(result, obj.Clone())
	}
	r.mu.RUnlock()

	slices.SortFunc(result, func(a, b catalog.Object) int {
		if c := strings.Compare(a.QualifiedName, b.QualifiedName); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return result, nil
}

// Relationships implements repository.Finder.
func (r *Repository) Relationships(_ context.Context, user, id string) ([]catalog.Relationship, error) {
	if err := r.authorize(user, "list relationships"); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.objects[id]; !ok {
		return nil, errors.NewNotFoundError("object", id)
	}
	return r.relationshipsOf(id), nil
}

// relationshipsOf must be called with the lock held.
func (r *Repository) relationshipsOf(id string) []catalog.Relationship {
	var result []catalog.Relationship
	for rel := range r.relationships {
		if rel.FromID == id || rel.ToID == id {
			result = append(result, rel)
		}
	}
	slices.SortFunc(result, compareRelationships)
	return result
}

// Create implements repository.Writer.
func (r *Repository) Create(_ context.Context, user string, obj catalog.Object) (string, error) {
	if err := r.authorize(user, "create"); err != nil {
		return "", err
	}
	if !obj.Kind.Valid() {
		return "", errors.NewValidationError("kind", obj.Kind, "unknown kind")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.live[obj.Kind][obj.QualifiedName]; exists {
		return "", errors.NewConflictError(obj.Kind.String(), obj.QualifiedName)
	}
	if _, ok := r.sources[obj.OwningSourceID]; !ok {
		return "", errors.NewNotFoundError("source", obj.OwningSourceID)
	}
	if obj.ParentID != "" {
		if parent, ok := r.objects[obj.ParentID]; !ok || parent.Deleted() {
			return "", errors.NewNotFoundError("parent", obj.ParentID)
		}
	}

	now := r.now()
	stored := obj.Clone()
	stored.ID = r.newID()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	stored.DeletedAt = nil

	r.objects[stored.ID] = &stored
	if r.live[stored.Kind] == nil {
		r.live[stored.Kind] = make(map[string]string)
	}
	r.live[stored.Kind][stored.QualifiedName] = stored.ID
	return stored.ID, nil
}

// Update implements repository.Writer.
func (r *Repository) Update(_ context.Context, user, id, displayName string, props catalog.Properties) error {
	if err := r.authorize(user, "update"); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	obj, ok := r.objects[id]
	if !ok || obj.Deleted() {
		return errors.NewNotFoundError("object", id)
	}
	obj.DisplayName = displayName
	obj.Properties = props.Clone()
	obj.UpdatedAt = r.now()
	return nil
}

// CreateRelationship implements repository.Writer.
func (r *Repository) CreateRelationship(_ context.Context, user string, rel catalog.Relationship) error {
	if err := r.authorize(user, "create relationship"); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range []string{rel.FromID, rel.ToID} {
		if _, ok := r.objects[id]; !ok {
			return errors.NewNotFoundError("object", id)
		}
	}
	r.relationships[rel] = struct{}{}
	return nil
}

// Remove implements repository.Writer.
func (r *Repository) Remove(_ context.Context, user, id string, semantic catalog.DeleteSemantic) error {
	if err := r.authorize(user, "remove"); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	obj, ok := r.objects[id]
	if !ok {
		return errors.NewNotFoundError("object", id)
	}

	switch semantic {
	case catalog.DeleteSoft:
		if obj.Deleted() {
			return errors.NewNotFoundError("object", id)
		}
		deletedAt := r.now()
		obj.DeletedAt = &deletedAt
		delete(r.live[obj.Kind], obj.QualifiedName)
		return nil

	case catalog.DeleteHard:
		if n := r.liveDependents(id); n > 0 {
			return errors.NewUnsupportedOperationError("hard delete", obj.Kind.String(), id,
				fmt.Sprintf("object has %d live dependents", n))
		}
		for _, rel := range r.relationshipsOf(id) {
			delete(r.relationships, rel)
		}
		if !obj.Deleted() {
			delete(r.live[obj.Kind], obj.QualifiedName)
		}
		delete(r.objects, id)
		return nil

	default:
		return errors.NewUnsupportedOperationError("remove", obj.Kind.String(), id,
			fmt.Sprintf("unknown delete semantic %q", semantic))
	}
}

// liveDependents must be called with the lock held.
func (r *Repository) liveDependents(id string) int {
	n := 0
	for rel := range r.relationships {
		if rel.FromID != id {
			continue
		}
		if child, ok := r.objects[rel.ToID]; ok && !child.Deleted() {
			n++
		}
	}
	return n
}

func compareRelationships(a, b catalog.Relationship) int {
	if c := strings.Compare(string(a.Kind), string(b.Kind)); c != 0 {
		return c
	}
	if c := strings.Compare(a.FromID, b.FromID); c != 0 {
		return c
	}
	return strings.Compare(a.ToID, b.ToID)
}
