package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/dataengine/pkg/catalog"
	"github.com/agentstation/dataengine/pkg/engine"
	"github.com/agentstation/dataengine/pkg/errors"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"wide", FormatWide, false},
		{"", "", false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.True(t, errors.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectFormatExplicit(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("YAML"))
}

func testObjects() []catalog.Object {
	return []catalog.Object{
		{ID: "c1", Kind: catalog.KindContainer, QualifiedName: "db1", DisplayName: "Sales", OwningSourceID: "s1"},
		{ID: "c2", Kind: catalog.KindContainer, QualifiedName: "db2", DisplayName: "Ops", OwningSourceID: "s2",
			Properties: catalog.Properties{"tier": "gold"}},
	}
}

func TestPrinterObjectsTable(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, "table")
	require.NoError(t, p.Objects(testObjects(), map[string]string{"s1": "warehouse"}))

	out := buf.String()
	assert.Contains(t, strings.ToUpper(out), "QUALIFIED NAME")
	assert.Contains(t, out, "warehouse")
	assert.Contains(t, out, "s2", "unknown sources are shown by id")
	assert.NotContains(t, out, "tier=gold")
}

func TestPrinterObjectsWide(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, "wide").Objects(testObjects(), nil))
	assert.Contains(t, buf.String(), "tier=gold")
}

func TestPrinterObjectsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, "json").Objects(testObjects(), nil))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "db1", decoded[0]["qualified_name"])
}

func TestPrinterEmptyObjectsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, "json").Objects(nil, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestPrinterBatchYAML(t *testing.T) {
	var buf bytes.Buffer
	result := engine.BatchResult{
		Items: []engine.Result{{
			ID: "st1", Kind: catalog.KindSchemaType, QualifiedName: "db1.orders", Action: engine.ActionCreated,
			Children: []engine.Result{{ID: "f1", Kind: catalog.KindField, QualifiedName: "db1.orders.id", Action: engine.ActionCreated}},
		}},
		Created: 2,
	}
	require.NoError(t, NewPrinter(&buf, "yaml").Batch(result))

	out := buf.String()
	assert.Contains(t, out, "created: 2")
	assert.Contains(t, out, "qualified_name: db1.orders.id")
}

func TestPrinterObjectJSONIncludesRelationships(t *testing.T) {
	var buf bytes.Buffer
	obj := testObjects()[0]
	rels := []catalog.Relationship{{Kind: catalog.RelationshipContains, FromID: "c1", ToID: "st1"}}
	require.NoError(t, NewPrinter(&buf, "json").Object(obj, rels, nil))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "db1", decoded["qualified_name"])
	assert.Len(t, decoded["relationships"], 1)
}

func TestPrinterSourcesTableTitlesHeaders(t *testing.T) {
	var buf bytes.Buffer
	src := catalog.ExternalSource{ID: "s1", QualifiedName: "warehouse", DisplayName: "Warehouse"}
	require.NoError(t, NewPrinter(&buf, "table").Sources(src))
	assert.Contains(t, strings.ToUpper(buf.String()), "DISPLAY NAME")
	assert.Contains(t, buf.String(), "warehouse")
}
