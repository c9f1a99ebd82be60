package table

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/dataengine/pkg/catalog"
)

// ProvenanceToTableData describes a single object as a property table: its
// identity, the source that created it, its lifecycle timestamps, its
// properties and every relationship it takes part in.
// names maps object and source ids to qualified names for display.
func ProvenanceToTableData(obj catalog.Object, rels []catalog.Relationship, names map[string]string) Data {
	rows := [][]string{
		{"Kind", obj.Kind.String()},
		{"Qualified Name", obj.QualifiedName},
		{"Display Name", obj.DisplayName},
		{"ID", obj.ID},
		{"Owning Source", sourceName(names, obj.OwningSourceID)},
		{"Parent", sourceName(names, obj.ParentID)},
		{"Status", Status(obj)},
		{"Created", formatTimestamp(obj.CreatedAt.Time)},
		{"Updated", formatTimestamp(obj.UpdatedAt.Time)},
	}
	if obj.DeletedAt != nil {
		rows = append(rows, []string{"Deleted", formatTimestamp(obj.DeletedAt.Time)})
	}

	keys := make([]string, 0, len(obj.Properties))
	for k := range obj.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rows = append(rows, []string{"properties." + k, formatValueAsYAML(obj.Properties[k])})
	}

	for _, rel := range rels {
		// Outgoing edges point at children, incoming ones at the parent.
		if rel.FromID == obj.ID {
			rows = append(rows, []string{rel.Kind.String(), "→ " + sourceName(names, rel.ToID)})
		} else {
			rows = append(rows, []string{rel.Kind.String(), "← " + sourceName(names, rel.FromID)})
		}
	}

	return Data{
		Headers:         []string{"Property", "Value"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft},
	}
}

// formatValueAsYAML formats a property value for display.
// Complex values (maps, slices) are formatted as YAML.
func formatValueAsYAML(val any) string {
	if val == nil {
		return "<nil>"
	}

	switch v := val.(type) {
	case string:
		if v == "" {
			return "<empty>"
		}
		return v
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%.2f", v)
	case bool:
		return fmt.Sprintf("%t", v)
	}

	yamlBytes, err := yaml.MarshalWithOptions(val, yaml.Flow(true))
	if err != nil {
		return fmt.Sprintf("%v", val)
	}
	return strings.TrimSuffix(string(yamlBytes), "\n")
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	diff := time.Since(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%d min ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%d hr ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(diff.Hours()/24))
	}
	return t.UTC().Format("2006-01-02 15:04")
}
