package ingest_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/dataengine/internal/ingest"
	"github.com/agentstation/dataengine/pkg/catalog"
	"github.com/agentstation/dataengine/pkg/engine"
	"github.com/agentstation/dataengine/pkg/errors"
	"github.com/agentstation/dataengine/pkg/logging"
	"github.com/agentstation/dataengine/pkg/repository/memory"
)

const sample = `
source:
  qualified_name: warehouse
  display_name: Warehouse
  register: true
containers:
  - qualified_name: db1
    display_name: Sales DB
    properties:
      owner: sales
schema_types:
  - qualified_name: db1.orders
    display_name: Orders
    container: db1
    fields:
      - qualified_name: db1.orders.id
        display_name: id
        properties:
          dataType: int
      - qualified_name: db1.orders.total
        display_name: total
fields:
  - qualified_name: db1.orders.note
    display_name: note
    schema_type: db1.orders
`

func TestParse(t *testing.T) {
	doc, err := ingest.Parse([]byte(sample), "sample.yaml")
	require.NoError(t, err)

	assert.Equal(t, "warehouse", doc.Source.QualifiedName)
	assert.True(t, doc.Source.Register)
	require.Len(t, doc.Containers, 1)
	assert.Equal(t, "sales", doc.Containers[0].Properties["owner"])
	require.Len(t, doc.SchemaTypes, 1)
	assert.Len(t, doc.SchemaTypes[0].Fields, 2)

	payloads := doc.Payloads()
	require.Len(t, payloads, 3)
	assert.Equal(t, catalog.KindContainer, payloads[0].Kind)
	assert.Equal(t, catalog.KindSchemaType, payloads[1].Kind)
	assert.Equal(t, "db1", payloads[1].ParentQualifiedName)
	assert.Equal(t, "db1.orders", payloads[1].Fields[0].ParentQualifiedName)
	assert.Equal(t, catalog.KindField, payloads[2].Kind)
	assert.Equal(t, "db1.orders", payloads[2].ParentQualifiedName)
}

func TestParseJSON(t *testing.T) {
	data := `{"source": {"qualified_name": "lake"}, "containers": [{"qualified_name": "bucket", "display_name": "Bucket"}]}`
	doc, err := ingest.Parse([]byte(data), "batch.json")
	require.NoError(t, err)
	assert.Equal(t, "lake", doc.Source.QualifiedName)
	assert.Len(t, doc.Containers, 1)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		check func(error) bool
	}{
		{"missing source", "containers: []\n", errors.IsValidationError},
		{"unknown key", "source:\n  qualified_name: x\ntables: []\n", func(err error) bool {
			var pe *errors.ParseError
			return errors.As(err, &pe)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ingest.Parse([]byte(tt.data), "bad.yaml")
			require.Error(t, err)
			assert.True(t, tt.check(err), err.Error())
		})
	}
}

func TestLoadAndApply(t *testing.T) {
	logging.DisableLoggingForTest(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "batch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	doc, err := ingest.Load(path)
	require.NoError(t, err)

	repo := memory.New()
	eng, err := engine.New(repo)
	require.NoError(t, err)

	result, err := ingest.Apply(ctx, eng, "tester", doc)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Created)

	// Re-applying the same document only updates.
	result, err = ingest.Apply(ctx, eng, "tester", doc)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 5, result.Updated)

	fields, err := repo.List(ctx, "tester", catalog.KindField)
	require.NoError(t, err)
	assert.Len(t, fields, 3)
}

func TestApplyWithoutRegistration(t *testing.T) {
	logging.DisableLoggingForTest(t)

	doc, err := ingest.Parse([]byte("source:\n  qualified_name: ghost\ncontainers:\n  - qualified_name: db1\n    display_name: db1\n"), "doc.yaml")
	require.NoError(t, err)

	eng, err := engine.New(memory.New())
	require.NoError(t, err)

	_, err = ingest.Apply(context.Background(), eng, "tester", doc)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := ingest.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	var ioErr *errors.IOError
	assert.True(t, errors.As(err, &ioErr))
}
