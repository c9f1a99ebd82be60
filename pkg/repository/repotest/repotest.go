// Package repotest holds a behavioural suite that every repository backend
// must pass.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/dataengine/pkg/catalog"
	"github.com/agentstation/dataengine/pkg/errors"
	"github.com/agentstation/dataengine/pkg/repository"
)

// User is the caller identity used throughout the suite.
const User = "tester"

// Factory returns a fresh, empty repository for one subtest.
type Factory func(t *testing.T) repository.Repository

// Run exercises the repository contract against repositories built by newRepo.
func Run(t *testing.T, newRepo Factory) {
	t.Run("sources", func(t *testing.T) { testSources(t, newRepo(t)) })
	t.Run("create and find", func(t *testing.T) { testCreateAndFind(t, newRepo(t)) })
	t.Run("create conflict", func(t *testing.T) { testCreateConflict(t, newRepo(t)) })
	t.Run("create requires parent", func(t *testing.T) { testCreateRequiresParent(t, newRepo(t)) })
	t.Run("update", func(t *testing.T) { testUpdate(t, newRepo(t)) })
	t.Run("relationships", func(t *testing.T) { testRelationships(t, newRepo(t)) })
	t.Run("soft delete", func(t *testing.T) { testSoftDelete(t, newRepo(t)) })
	t.Run("hard delete", func(t *testing.T) { testHardDelete(t, newRepo(t)) })
	t.Run("list", func(t *testing.T) { testList(t, newRepo(t)) })
}

// ClockFactory returns a fresh repository whose timestamps come from clock.
type ClockFactory func(t *testing.T, clock func() utc.Time) repository.Repository

// RunTombstoneOrder checks that, of several tombstones sharing a qualified
// name, FindByQualifiedName with IncludeDeleted reports the most recently
// deleted one, including when the deletions are less than a second apart.
func RunTombstoneOrder(t *testing.T, newRepo ClockFactory) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC)
	now := utc.Time{Time: base}
	repo := newRepo(t, func() utc.Time { return now })
	src := MustSource(t, repo, "warehouse")

	deleteAt := func(offset time.Duration) string {
		t.Helper()
		id := MustCreate(t, repo, catalog.Object{Kind: catalog.KindContainer, QualifiedName: "db1", DisplayName: "db1", OwningSourceID: src})
		now = utc.Time{Time: base.Add(offset)}
		require.NoError(t, repo.Remove(ctx, User, id, catalog.DeleteSoft))
		return id
	}

	deleteAt(100 * time.Millisecond)
	latest := deleteAt(120 * time.Millisecond)

	obj, found, err := repo.FindByQualifiedName(ctx, User, "db1", catalog.KindContainer, repository.IncludeDeleted())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, latest, obj.ID)
	require.NotNil(t, obj.DeletedAt)
	assert.True(t, obj.DeletedAt.Time.Equal(base.Add(120*time.Millisecond)))
}

// MustSource registers a source and returns its id.
func MustSource(t *testing.T, repo repository.Repository, qn string) string {
	t.Helper()
	id, err := repo.RegisterSource(context.Background(), User, catalog.ExternalSource{QualifiedName: qn, DisplayName: qn})
	require.NoError(t, err)
	return id
}

// MustCreate creates an object and returns its id.
func MustCreate(t *testing.T, repo repository.Repository, obj catalog.Object) string {
	t.Helper()
	id, err := repo.Create(context.Background(), User, obj)
	require.NoError(t, err)
	return id
}

func testSources(t *testing.T, repo repository.Repository) {
	ctx := context.Background()

	_, err := repo.ResolveSource(ctx, User, "warehouse")
	assert.True(t, errors.IsNotFound(err))

	id := MustSource(t, repo, "warehouse")
	assert.NotEmpty(t, id)

	resolved, err := repo.ResolveSource(ctx, User, "warehouse")
	require.NoError(t, err)
	assert.Equal(t, id, resolved)

	_, err = repo.RegisterSource(ctx, User, catalog.ExternalSource{QualifiedName: "warehouse"})
	assert.True(t, errors.IsConflict(err))

	_, err = repo.RegisterSource(ctx, User, catalog.ExternalSource{QualifiedName: "  "})
	assert.True(t, errors.IsValidationError(err))

	lake := MustSource(t, repo, "lake")
	sources, err := repo.ListSources(ctx, User)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "lake", sources[0].QualifiedName)
	assert.Equal(t, lake, sources[0].ID)
	assert.Equal(t, "warehouse", sources[1].QualifiedName)
	assert.False(t, sources[1].CreatedAt.IsZero())
}

func testCreateAndFind(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	src := MustSource(t, repo, "warehouse")

	id := MustCreate(t, repo, catalog.Object{
		Kind:           catalog.KindContainer,
		QualifiedName:  "db1",
		DisplayName:    "Database 1",
		Properties:     catalog.Properties{"owner": "data-team"},
		OwningSourceID: src,
	})

	obj, found, err := repo.FindByQualifiedName(ctx, User, "db1", catalog.KindContainer)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, id, obj.ID)
	assert.Equal(t, "Database 1", obj.DisplayName)
	assert.Equal(t, "data-team", obj.Properties["owner"])
	assert.Equal(t, src, obj.OwningSourceID)
	assert.False(t, obj.CreatedAt.IsZero())
	assert.False(t, obj.Deleted())

	// Lookup is exact and kind-scoped.
	_, found, err = repo.FindByQualifiedName(ctx, User, "DB1", catalog.KindContainer)
	require.NoError(t, err)
	assert.False(t, found)
	_, found, err = repo.FindByQualifiedName(ctx, User, "db1", catalog.KindSchemaType)
	require.NoError(t, err)
	assert.False(t, found)

	got, err := repo.Get(ctx, User, id)
	require.NoError(t, err)
	assert.Equal(t, "db1", got.QualifiedName)

	_, err = repo.Get(ctx, User, "missing")
	assert.True(t, errors.IsNotFound(err))
}

func testCreateConflict(t *testing.T, repo repository.Repository) {
	src := MustSource(t, repo, "warehouse")
	obj := catalog.Object{Kind: catalog.KindContainer, QualifiedName: "db1", DisplayName: "db1", OwningSourceID: src}
	MustCreate(t, repo, obj)

	_, err := repo.Create(context.Background(), User, obj)
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))

	// Same qualified name under another kind is a different object.
	obj.Kind = catalog.KindSchemaType
	MustCreate(t, repo, obj)
}

func testCreateRequiresParent(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	src := MustSource(t, repo, "warehouse")

	_, err := repo.Create(ctx, User, catalog.Object{
		Kind: catalog.KindSchemaType, QualifiedName: "db1.t1", DisplayName: "t1",
		OwningSourceID: src, ParentID: "missing",
	})
	assert.True(t, errors.IsNotFound(err))

	_, err = repo.Create(ctx, User, catalog.Object{
		Kind: catalog.KindContainer, QualifiedName: "db1", DisplayName: "db1", OwningSourceID: "missing",
	})
	assert.True(t, errors.IsNotFound(err))

	_, found, err := repo.FindByQualifiedName(ctx, User, "db1", catalog.KindContainer)
	require.NoError(t, err)
	assert.False(t, found)
}

func testUpdate(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	src := MustSource(t, repo, "warehouse")
	id := MustCreate(t, repo, catalog.Object{
		Kind: catalog.KindContainer, QualifiedName: "db1", DisplayName: "old",
		Properties: catalog.Properties{"tier": "gold"}, OwningSourceID: src,
	})

	require.NoError(t, repo.Update(ctx, User, id, "new", catalog.Properties{"tier": "silver"}))

	obj, err := repo.Get(ctx, User, id)
	require.NoError(t, err)
	assert.Equal(t, "new", obj.DisplayName)
	assert.Equal(t, "silver", obj.Properties["tier"])
	assert.Equal(t, src, obj.OwningSourceID)

	err = repo.Update(ctx, User, "missing", "x", nil)
	assert.True(t, errors.IsNotFound(err))
}

func testRelationships(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	src := MustSource(t, repo, "warehouse")
	db := MustCreate(t, repo, catalog.Object{Kind: catalog.KindContainer, QualifiedName: "db1", DisplayName: "db1", OwningSourceID: src})
	st := MustCreate(t, repo, catalog.Object{Kind: catalog.KindSchemaType, QualifiedName: "db1.t1", DisplayName: "t1", OwningSourceID: src, ParentID: db})

	rel := catalog.Relationship{Kind: catalog.RelationshipContains, FromID: db, ToID: st}
	require.NoError(t, repo.CreateRelationship(ctx, User, rel))
	require.NoError(t, repo.CreateRelationship(ctx, User, rel))

	rels, err := repo.Relationships(ctx, User, st)
	require.NoError(t, err)
	assert.Equal(t, []catalog.Relationship{rel}, rels)

	err = repo.CreateRelationship(ctx, User, catalog.Relationship{Kind: catalog.RelationshipContains, FromID: db, ToID: "missing"})
	assert.True(t, errors.IsNotFound(err))
}

func testSoftDelete(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	src := MustSource(t, repo, "warehouse")
	id := MustCreate(t, repo, catalog.Object{Kind: catalog.KindContainer, QualifiedName: "db1", DisplayName: "db1", OwningSourceID: src})

	require.NoError(t, repo.Remove(ctx, User, id, catalog.DeleteSoft))

	_, found, err := repo.FindByQualifiedName(ctx, User, "db1", catalog.KindContainer)
	require.NoError(t, err)
	assert.False(t, found)

	tomb, found, err := repo.FindByQualifiedName(ctx, User, "db1", catalog.KindContainer, repository.IncludeDeleted())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, id, tomb.ID)
	assert.True(t, tomb.Deleted())

	_, err = repo.Get(ctx, User, id)
	assert.True(t, errors.IsNotFound(err))
	_, err = repo.Get(ctx, User, id, repository.IncludeDeleted())
	assert.NoError(t, err)

	// Tombstones do not occupy the qualified name.
	fresh := MustCreate(t, repo, catalog.Object{Kind: catalog.KindContainer, QualifiedName: "db1", DisplayName: "db1", OwningSourceID: src})
	assert.NotEqual(t, id, fresh)

	err = repo.Remove(ctx, User, id, catalog.DeleteSoft)
	assert.True(t, errors.IsNotFound(err))
}

func testHardDelete(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	src := MustSource(t, repo, "warehouse")
	db := MustCreate(t, repo, catalog.Object{Kind: catalog.KindContainer, QualifiedName: "db1", DisplayName: "db1", OwningSourceID: src})
	st := MustCreate(t, repo, catalog.Object{Kind: catalog.KindSchemaType, QualifiedName: "db1.t1", DisplayName: "t1", OwningSourceID: src, ParentID: db})
	require.NoError(t, repo.CreateRelationship(ctx, User, catalog.Relationship{Kind: catalog.RelationshipContains, FromID: db, ToID: st}))

	err := repo.Remove(ctx, User, db, catalog.DeleteHard)
	require.Error(t, err)
	assert.True(t, errors.IsUnsupported(err))

	_, err = repo.Get(ctx, User, db)
	require.NoError(t, err, "refused hard delete must leave the object in place")

	require.NoError(t, repo.Remove(ctx, User, st, catalog.DeleteHard))
	require.NoError(t, repo.Remove(ctx, User, db, catalog.DeleteHard))

	_, err = repo.Get(ctx, User, db, repository.IncludeDeleted())
	assert.True(t, errors.IsNotFound(err))
	_, found, err := repo.FindByQualifiedName(ctx, User, "db1", catalog.KindContainer, repository.IncludeDeleted())
	require.NoError(t, err)
	assert.False(t, found)

	err = repo.Remove(ctx, User, db, catalog.DeleteHard)
	assert.True(t, errors.IsNotFound(err))

	other := MustCreate(t, repo, catalog.Object{Kind: catalog.KindContainer, QualifiedName: "db2", DisplayName: "db2", OwningSourceID: src})
	err = repo.Remove(ctx, User, other, catalog.DeleteSemantic("archive"))
	assert.True(t, errors.IsUnsupported(err))
}

func testList(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	src := MustSource(t, repo, "warehouse")
	for _, qn := range []string{"db3", "db1", "db2"} {
		MustCreate(t, repo, catalog.Object{Kind: catalog.KindContainer, QualifiedName: qn, DisplayName: qn, OwningSourceID: src})
	}
	gone, _, err := repo.FindByQualifiedName(ctx, User, "db2", catalog.KindContainer)
	require.NoError(t, err)
	require.NoError(t, repo.Remove(ctx, User, gone.ID, catalog.DeleteSoft))

	live, err := repo.List(ctx, User, catalog.KindContainer)
	require.NoError(t, err)
	assert.Equal(t, []string{"db1", "db3"}, qualifiedNames(live))

	all, err := repo.List(ctx, User, catalog.KindContainer, repository.IncludeDeleted())
	require.NoError(t, err)
	assert.Equal(t, []string{"db1", "db2", "db3"}, qualifiedNames(all))

	fields, err := repo.List(ctx, User, catalog.KindField)
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func qualifiedNames(objs []catalog.Object) []string {
	names := make([]string, 0, len(objs))
	for _, o := range objs {
		names = append(names, o.QualifiedName)
	}
	return names
}
