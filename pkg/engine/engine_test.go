package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/dataengine/pkg/catalog"
	"github.com/agentstation/dataengine/pkg/engine"
	"github.com/agentstation/dataengine/pkg/errors"
	"github.com/agentstation/dataengine/pkg/logging"
	"github.com/agentstation/dataengine/pkg/repository"
	"github.com/agentstation/dataengine/pkg/repository/memory"
)

const (
	user      = "ingest-bot"
	warehouse = "warehouse"
	lake      = "lake"
)

type fixture struct {
	ctx     context.Context
	repo    repository.Repository
	eng     *engine.Engine
	sources map[string]string
}

func newFixture(t *testing.T, repo repository.Repository, opts ...engine.Option) *fixture {
	t.Helper()
	logging.DisableLoggingForTest(t)

	if repo == nil {
		repo = memory.New()
	}
	eng, err := engine.New(repo, opts...)
	require.NoError(t, err)

	f := &fixture{ctx: context.Background(), repo: repo, eng: eng, sources: map[string]string{}}
	for _, qn := range []string{warehouse, lake} {
		id, err := eng.Registrar().Register(f.ctx, user, catalog.ExternalSource{QualifiedName: qn})
		require.NoError(t, err)
		f.sources[qn] = id
	}
	return f
}

func (f *fixture) find(t *testing.T, kind catalog.Kind, qn string) (catalog.Object, bool) {
	t.Helper()
	obj, found, err := f.eng.Lookup().Find(f.ctx, user, qn, kind)
	require.NoError(t, err)
	return obj, found
}

func (f *fixture) count(t *testing.T, kind catalog.Kind) int {
	t.Helper()
	objs, err := f.repo.List(f.ctx, user, kind)
	require.NoError(t, err)
	return len(objs)
}

func (f *fixture) container(t *testing.T, qn string) string {
	t.Helper()
	res, err := f.eng.Containers().Reconcile(f.ctx, user, catalog.Container{QualifiedName: qn, DisplayName: qn}, warehouse)
	require.NoError(t, err)
	return res.ID
}

func orders(fields ...string) catalog.SchemaType {
	st := catalog.SchemaType{
		QualifiedName:          "db1.orders",
		DisplayName:            "Orders",
		ContainerQualifiedName: "db1",
	}
	for _, f := range fields {
		st.Fields = append(st.Fields, catalog.Field{QualifiedName: "db1.orders." + f, DisplayName: f})
	}
	return st
}

func TestNewRejectsNilRepository(t *testing.T) {
	_, err := engine.New(nil)
	assert.True(t, errors.IsValidationError(err))
}

func TestIdempotence(t *testing.T) {
	f := newFixture(t, nil)
	f.container(t, "db1")

	first, err := f.eng.SchemaTypes().Reconcile(f.ctx, user, orders("id", "total"), warehouse)
	require.NoError(t, err)
	assert.Equal(t, engine.ActionCreated, first.Action)
	require.Len(t, first.Children, 2)

	second, err := f.eng.SchemaTypes().Reconcile(f.ctx, user, orders("id", "total"), warehouse)
	require.NoError(t, err)
	assert.Equal(t, engine.ActionUpdated, second.Action)
	assert.Equal(t, first.ID, second.ID)
	for i := range first.Children {
		assert.Equal(t, first.Children[i].ID, second.Children[i].ID)
		assert.Equal(t, engine.ActionUpdated, second.Children[i].Action)
	}

	assert.Equal(t, 1, f.count(t, catalog.KindContainer))
	assert.Equal(t, 1, f.count(t, catalog.KindSchemaType))
	assert.Equal(t, 2, f.count(t, catalog.KindField))

	rels, err := f.repo.Relationships(f.ctx, user, first.ID)
	require.NoError(t, err)
	assert.Len(t, rels, 3, "one CONTAINS and two HAS_FIELD")
}

func TestParentBeforeChild(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.eng.SchemaTypes().Reconcile(f.ctx, user, orders("id"), warehouse)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	var nf *errors.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Container", nf.Resource)
	assert.Equal(t, "db1", nf.ID)

	assert.Zero(t, f.count(t, catalog.KindSchemaType))
	assert.Zero(t, f.count(t, catalog.KindField))

	_, err = f.eng.Fields().Reconcile(f.ctx, user, catalog.Field{
		QualifiedName: "db1.orders.id", DisplayName: "id", SchemaTypeQualifiedName: "db1.orders",
	}, warehouse)
	assert.True(t, errors.IsNotFound(err))
	assert.Zero(t, f.count(t, catalog.KindField))
}

func TestProvenanceStability(t *testing.T) {
	f := newFixture(t, nil)
	id := f.container(t, "db1")

	for i := 0; i < 3; i++ {
		res, err := f.eng.Containers().Reconcile(f.ctx, user, catalog.Container{
			QualifiedName: "db1", DisplayName: "Database One",
		}, lake)
		require.NoError(t, err)
		assert.Equal(t, id, res.ID)
	}

	obj, found := f.find(t, catalog.KindContainer, "db1")
	require.True(t, found)
	assert.Equal(t, f.sources[warehouse], obj.OwningSourceID)
	assert.Equal(t, "Database One", obj.DisplayName)
}

func TestIDStabilityAndAttributeUpdate(t *testing.T) {
	f := newFixture(t, nil)
	created, err := f.eng.Containers().Reconcile(f.ctx, user, catalog.Container{
		QualifiedName: "db1", DisplayName: "db1", Properties: catalog.Properties{"tier": "gold"},
	}, warehouse)
	require.NoError(t, err)

	updated, err := f.eng.Containers().Reconcile(f.ctx, user, catalog.Container{
		QualifiedName: "db1", DisplayName: "renamed", Properties: catalog.Properties{"tier": "silver"},
	}, warehouse)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	obj, _ := f.find(t, catalog.KindContainer, "db1")
	assert.Equal(t, created.ID, obj.ID)
	assert.Equal(t, "renamed", obj.DisplayName)
	assert.Equal(t, catalog.Properties{"tier": "silver"}, obj.Properties)
}

func TestBatchFailFast(t *testing.T) {
	f := newFixture(t, nil)

	result, err := f.eng.Batch().UpsertContainers(f.ctx, user, []catalog.Container{
		{QualifiedName: "db1", DisplayName: "one"},
		{QualifiedName: "db2", DisplayName: ""},
		{QualifiedName: "db3", DisplayName: "three"},
	}, warehouse)
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))

	var re *errors.ResourceError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "upsert", re.Operation)
	assert.Equal(t, "Container", re.Resource)
	assert.Equal(t, "db2", re.ID)

	_, found := f.find(t, catalog.KindContainer, "db1")
	assert.True(t, found, "items before the failure stay applied")
	_, found = f.find(t, catalog.KindContainer, "db3")
	assert.False(t, found, "items after the failure are not attempted")

	assert.Equal(t, 1, result.Created)
	assert.Len(t, result.Items, 1)
}

func TestBatchOrderAndCounts(t *testing.T) {
	f := newFixture(t, nil)
	f.container(t, "db1")

	result, err := f.eng.Batch().UpsertMany(f.ctx, user, []catalog.Payload{
		{Kind: catalog.KindContainer, QualifiedName: "db1", DisplayName: "db1"},
		{Kind: catalog.KindContainer, QualifiedName: "db2", DisplayName: "db2"},
		orders("id", "total").Payload(),
	}, warehouse)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 4, result.Created)
	assert.Equal(t, 5, result.Total())
	require.Len(t, result.Items, 3)
	assert.Equal(t, "db1", result.Items[0].QualifiedName)
	assert.Equal(t, "db1.orders", result.Items[2].QualifiedName)
}

func TestBatchChildBeforeParentFails(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.eng.Batch().UpsertMany(f.ctx, user, []catalog.Payload{
		orders().Payload(),
		{Kind: catalog.KindContainer, QualifiedName: "db1", DisplayName: "db1"},
	}, warehouse)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Zero(t, f.count(t, catalog.KindContainer), "batches are not reordered")
}

func TestBatchUnknownSource(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.eng.Batch().UpsertContainers(f.ctx, user, []catalog.Container{{QualifiedName: "db1", DisplayName: "db1"}}, "nobody")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	var re *errors.ResourceError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "resolve", re.Operation)
	assert.Zero(t, f.count(t, catalog.KindContainer))
}

func TestTypedBatches(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.eng.Batch().UpsertContainers(f.ctx, user, []catalog.Container{{QualifiedName: "db1", DisplayName: "db1"}}, warehouse)
	require.NoError(t, err)
	_, err = f.eng.Batch().UpsertSchemaTypes(f.ctx, user, []catalog.SchemaType{orders("id")}, warehouse)
	require.NoError(t, err)
	res, err := f.eng.Batch().UpsertFields(f.ctx, user, []catalog.Field{
		{QualifiedName: "db1.orders.total", DisplayName: "total", SchemaTypeQualifiedName: "db1.orders"},
	}, warehouse)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)

	st, _ := f.find(t, catalog.KindSchemaType, "db1.orders")
	field, found := f.find(t, catalog.KindField, "db1.orders.total")
	require.True(t, found)
	assert.Equal(t, st.ID, field.ParentID)
}

func TestAdditiveCascade(t *testing.T) {
	f := newFixture(t, nil)
	f.container(t, "db1")

	_, err := f.eng.SchemaTypes().Reconcile(f.ctx, user, orders("a", "b"), warehouse)
	require.NoError(t, err)
	res, err := f.eng.SchemaTypes().Reconcile(f.ctx, user, orders("a", "c"), warehouse)
	require.NoError(t, err)

	for _, name := range []string{"a", "b", "c"} {
		field, found := f.find(t, catalog.KindField, "db1.orders."+name)
		require.True(t, found, name)
		assert.Equal(t, res.ID, field.ParentID)
	}
	assert.Equal(t, 3, f.count(t, catalog.KindField))
}

func TestParentIsFixedAtCreation(t *testing.T) {
	f := newFixture(t, nil)
	f.container(t, "db1")
	f.container(t, "db2")

	first, err := f.eng.SchemaTypes().Reconcile(f.ctx, user, orders(), warehouse)
	require.NoError(t, err)

	moved := orders()
	moved.ContainerQualifiedName = "db2"
	moved.DisplayName = "Moved Orders"
	res, err := f.eng.SchemaTypes().Reconcile(f.ctx, user, moved, warehouse)
	require.NoError(t, err)
	assert.Equal(t, first.ID, res.ID)

	db1, _ := f.find(t, catalog.KindContainer, "db1")
	st, _ := f.find(t, catalog.KindSchemaType, "db1.orders")
	assert.Equal(t, db1.ID, st.ParentID)
	assert.Equal(t, "Moved Orders", st.DisplayName)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		payload catalog.Payload
		field   string
	}{
		{
			name:    "blank qualified name",
			payload: catalog.Payload{Kind: catalog.KindContainer, DisplayName: "x"},
			field:   "qualifiedName",
		},
		{
			name:    "blank display name",
			payload: catalog.Payload{Kind: catalog.KindContainer, QualifiedName: "db1", DisplayName: "  "},
			field:   "displayName",
		},
		{
			name:    "unknown kind",
			payload: catalog.Payload{Kind: "Table", QualifiedName: "db1", DisplayName: "db1"},
			field:   "kind",
		},
		{
			name:    "schema type without container",
			payload: catalog.Payload{Kind: catalog.KindSchemaType, QualifiedName: "db1.t", DisplayName: "t"},
			field:   "parent",
		},
		{
			name: "container with children",
			payload: catalog.Payload{
				Kind: catalog.KindContainer, QualifiedName: "db1", DisplayName: "db1",
				Fields: []catalog.Payload{{Kind: catalog.KindField, QualifiedName: "f", DisplayName: "f"}},
			},
			field: "fields",
		},
		{
			name: "wrong child kind",
			payload: catalog.Payload{
				Kind: catalog.KindSchemaType, QualifiedName: "db1.t", DisplayName: "t", ParentQualifiedName: "db1",
				Fields: []catalog.Payload{{Kind: catalog.KindContainer, QualifiedName: "c", DisplayName: "c"}},
			},
			field: "fields.kind",
		},
		{
			name: "child listed under another parent",
			payload: catalog.Payload{
				Kind: catalog.KindSchemaType, QualifiedName: "db1.t", DisplayName: "t", ParentQualifiedName: "db1",
				Fields: []catalog.Payload{{Kind: catalog.KindField, QualifiedName: "f", DisplayName: "f", ParentQualifiedName: "db1.u"}},
			},
			field: "fields.parent",
		},
		{
			name: "blank child display name",
			payload: catalog.Payload{
				Kind: catalog.KindSchemaType, QualifiedName: "db1.t", DisplayName: "t", ParentQualifiedName: "db1",
				Fields: []catalog.Payload{{Kind: catalog.KindField, QualifiedName: "f"}},
			},
			field: "displayName",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.container(t, "db1")

			_, err := f.eng.Reconcile(f.ctx, user, tt.payload, warehouse)
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err))

			var ve *errors.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)

			assert.Zero(t, f.count(t, catalog.KindSchemaType))
			assert.Zero(t, f.count(t, catalog.KindField))
		})
	}
}

func TestRequiredProperties(t *testing.T) {
	f := newFixture(t, nil, engine.WithRequiredProperties(catalog.KindField, "dataType"))
	f.container(t, "db1")

	_, err := f.eng.SchemaTypes().Reconcile(f.ctx, user, orders("id"), warehouse)
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	assert.Zero(t, f.count(t, catalog.KindSchemaType), "validation runs before any write")

	st := orders()
	st.Fields = []catalog.Field{{QualifiedName: "db1.orders.id", DisplayName: "id", Properties: catalog.Properties{"dataType": "int"}}}
	_, err = f.eng.SchemaTypes().Reconcile(f.ctx, user, st, warehouse)
	require.NoError(t, err)
}

func TestInvalidOptions(t *testing.T) {
	_, err := engine.New(memory.New(), engine.WithRequiredProperties("Table", "x"))
	assert.True(t, errors.IsValidationError(err))

	_, err = engine.New(memory.New(), engine.WithDeleteSemantics(catalog.KindField, "archive"))
	assert.True(t, errors.IsValidationError(err))
}

func TestUnregisteredSource(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.eng.Containers().Reconcile(f.ctx, user, catalog.Container{QualifiedName: "db1", DisplayName: "db1"}, "unknown")
	assert.True(t, errors.IsNotFound(err))
	assert.Zero(t, f.count(t, catalog.KindContainer))

	_, err = f.eng.Resolver().Resolve(f.ctx, user, "")
	assert.True(t, errors.IsValidationError(err))
}

func TestAuthorizationSurfacesUnmodified(t *testing.T) {
	repo := memory.New(memory.WithAllowedUsers(user))
	f := newFixture(t, repo)

	_, err := f.eng.Containers().Reconcile(f.ctx, "intruder", catalog.Container{QualifiedName: "db1", DisplayName: "db1"}, warehouse)
	require.Error(t, err)
	assert.True(t, errors.IsUnauthorized(err))
}

func TestRegistrarIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)

	id, err := f.eng.Registrar().Register(f.ctx, user, catalog.ExternalSource{QualifiedName: warehouse, DisplayName: "again"})
	require.NoError(t, err)
	assert.Equal(t, f.sources[warehouse], id)

	_, err = f.eng.Registrar().Register(f.ctx, user, catalog.ExternalSource{})
	assert.True(t, errors.IsValidationError(err))
}

func TestReconcileLogsWrites(t *testing.T) {
	f := newFixture(t, nil)
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(f.ctx, tl.Logger)

	_, err := f.eng.Containers().Reconcile(ctx, user, catalog.Container{QualifiedName: "db1", DisplayName: "db1"}, warehouse)
	require.NoError(t, err)

	tl.AssertContains(t, "Created object")
	assert.True(t, tl.ContainsAll(`"kind":"Container"`, `"qualified_name":"db1"`, `"source":"warehouse"`, `"user":"ingest-bot"`))
}
