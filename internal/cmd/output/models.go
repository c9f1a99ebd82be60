package output

import (
	"io"

	"github.com/agentstation/dataengine/internal/cmd/table"
	"github.com/agentstation/dataengine/pkg/catalog"
	"github.com/agentstation/dataengine/pkg/engine"
)

// Printer writes command results in one output format.
type Printer struct {
	w      io.Writer
	format Format
}

// NewPrinter returns a Printer for the given format. An empty format is
// detected from the terminal.
func NewPrinter(w io.Writer, format string) *Printer {
	return &Printer{w: w, format: DetectFormat(format)}
}

// print renders tableData for table formats and raw for the others.
// Unknown formats fall back to a table.
func (p *Printer) print(tableData Data, raw any) error {
	switch p.format {
	case FormatJSON:
		return writeJSON(p.w, raw)
	case FormatYAML:
		return writeYAML(p.w, raw)
	default:
		return writeTable(p.w, tableData)
	}
}

// Objects prints a list of catalogued objects.
func (p *Printer) Objects(objects []catalog.Object, sources map[string]string) error {
	if objects == nil {
		objects = []catalog.Object{}
	}
	return p.print(table.ObjectsToTableData(objects, sources, p.format == FormatWide), objects)
}

// Object prints one object with its relationships.
func (p *Printer) Object(obj catalog.Object, rels []catalog.Relationship, names map[string]string) error {
	raw := struct {
		catalog.Object `yaml:",inline"`
		Relationships  []catalog.Relationship `json:"relationships,omitempty" yaml:"relationships,omitempty"`
	}{obj, rels}
	return p.print(table.ProvenanceToTableData(obj, rels, names), raw)
}

// Sources prints external sources.
func (p *Printer) Sources(sources ...catalog.ExternalSource) error {
	return p.print(table.SourcesToTableData(sources), sources)
}

// Batch prints the outcome of an ingestion batch.
func (p *Printer) Batch(result engine.BatchResult) error {
	return p.print(table.BatchToTableData(result), result)
}
