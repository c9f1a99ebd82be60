// Package table provides common table formatting utilities for CLI commands.
package table

import (
	"sort"
	"strings"

	"github.com/agentstation/dataengine/pkg/catalog"
	"github.com/agentstation/dataengine/pkg/engine"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

// ObjectsToTableData converts catalogued objects to table format.
// sources maps source ids to qualified names; unknown ids are shown as-is.
// Wide output adds ids, parents and properties.
func ObjectsToTableData(objects []catalog.Object, sources map[string]string, wide bool) Data {
	headers := []string{"Kind", "Qualified Name", "Display Name", "Source", "Status"}
	if wide {
		headers = append(headers, "ID", "Parent", "Properties", "Updated")
	}

	rows := make([][]string, 0, len(objects))
	for _, obj := range objects {
		row := []string{
			obj.Kind.String(),
			obj.QualifiedName,
			obj.DisplayName,
			sourceName(sources, obj.OwningSourceID),
			Status(obj),
		}
		if wide {
			row = append(row,
				obj.ID,
				orDash(obj.ParentID),
				FormatProperties(obj.Properties),
				formatTimestamp(obj.UpdatedAt.Time),
			)
		}
		rows = append(rows, row)
	}

	return Data{Headers: headers, Rows: rows}
}

// SourcesToTableData converts external sources to table format.
func SourcesToTableData(sources []catalog.ExternalSource) Data {
	rows := make([][]string, 0, len(sources))
	for _, s := range sources {
		rows = append(rows, []string{s.QualifiedName, orDash(s.DisplayName), s.ID})
	}
	return Data{
		Headers: []string{"Qualified Name", "Display Name", "ID"},
		Rows:    rows,
	}
}

// BatchToTableData converts a batch result to table format, one row per
// written object. Cascaded children are indented under their parent.
func BatchToTableData(result engine.BatchResult) Data {
	var rows [][]string
	var walk func(res engine.Result, depth int)
	walk = func(res engine.Result, depth int) {
		rows = append(rows, []string{
			strings.Repeat("  ", depth) + res.QualifiedName,
			res.Kind.String(),
			string(res.Action),
			res.ID,
		})
		for _, child := range res.Children {
			walk(child, depth+1)
		}
	}
	for _, item := range result.Items {
		walk(item, 0)
	}

	return Data{
		Headers: []string{"Qualified Name", "Kind", "Action", "ID"},
		Rows:    rows,
	}
}

// Status describes whether obj is live or tombstoned.
func Status(obj catalog.Object) string {
	if obj.Deleted() {
		return "deleted"
	}
	return "live"
}

// FormatProperties renders properties as sorted key=value pairs.
func FormatProperties(props catalog.Properties) string {
	if len(props) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+formatValueAsYAML(props[k]))
	}
	s := strings.Join(parts, ", ")
	if len(s) > 60 {
		s = s[:57] + "..."
	}
	return s
}

func sourceName(sources map[string]string, id string) string {
	if name, ok := sources[id]; ok {
		return name
	}
	return orDash(id)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
