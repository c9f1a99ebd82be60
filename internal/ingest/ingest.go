// Package ingest loads ingestion documents and applies them through the
// reconciliation engine.
//
// A document names the reporting source and lists the objects it owns,
// grouped by kind. Sections are applied Containers first, then SchemaTypes
// (each cascading to its own fields), then standalone Fields, so a single
// document can describe a complete hierarchy. Within a section the listed
// order is kept.
//
//	source:
//	  qualified_name: warehouse
//	  register: true
//	containers:
//	  - qualified_name: db1
//	    display_name: Sales DB
//	schema_types:
//	  - qualified_name: db1.orders
//	    display_name: Orders
//	    container: db1
//	    fields:
//	      - qualified_name: db1.orders.id
//	        display_name: id
//
// JSON documents with the same keys are accepted as well.
package ingest

import (
	"context"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/dataengine/pkg/catalog"
	"github.com/agentstation/dataengine/pkg/engine"
	"github.com/agentstation/dataengine/pkg/errors"
	"github.com/agentstation/dataengine/pkg/logging"
)

// Source identifies the producer of a document.
type Source struct {
	QualifiedName string `json:"qualified_name" yaml:"qualified_name"`
	DisplayName   string `json:"display_name,omitempty" yaml:"display_name,omitempty"`

	// Register creates the source when it is not yet known.
	Register bool `json:"register,omitempty" yaml:"register,omitempty"`
}

// Document is one ingestion batch.
type Document struct {
	Source      Source               `json:"source" yaml:"source"`
	Containers  []catalog.Container  `json:"containers,omitempty" yaml:"containers,omitempty"`
	SchemaTypes []catalog.SchemaType `json:"schema_types,omitempty" yaml:"schema_types,omitempty"`
	Fields      []catalog.Field      `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Parse decodes a YAML or JSON document. Unknown keys are rejected.
// name is only used in error messages.
func Parse(data []byte, name string) (*Document, error) {
	var doc Document
	if err := yaml.UnmarshalWithOptions(data, &doc, yaml.Strict()); err != nil {
		return nil, errors.WrapParse(format(name), name, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Load reads and parses the document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	return Parse(data, path)
}

// Validate checks the document-level attributes. Object payloads are
// validated by the engine as they are applied.
func (d *Document) Validate() error {
	if strings.TrimSpace(d.Source.QualifiedName) == "" {
		return errors.NewValidationError("source.qualified_name", d.Source.QualifiedName, "cannot be blank")
	}
	return nil
}

// Payloads flattens the document into application order.
func (d *Document) Payloads() []catalog.Payload {
	payloads := make([]catalog.Payload, 0, len(d.Containers)+len(d.SchemaTypes)+len(d.Fields))
	for _, c := range d.Containers {
		payloads = append(payloads, c.Payload())
	}
	for _, s := range d.SchemaTypes {
		payloads = append(payloads, s.Payload())
	}
	for _, f := range d.Fields {
		payloads = append(payloads, f.Payload())
	}
	return payloads
}

// Apply registers the document's source if asked to, then upserts every
// object in it. It stops at the first failing object; see
// engine.Orchestrator.UpsertMany.
func Apply(ctx context.Context, eng *engine.Engine, user string, doc *Document) (engine.BatchResult, error) {
	if err := doc.Validate(); err != nil {
		return engine.BatchResult{}, err
	}
	ctx = logging.WithOperation(ctx, "ingest")

	if doc.Source.Register {
		if _, err := eng.Registrar().Register(ctx, user, catalog.ExternalSource{
			QualifiedName: doc.Source.QualifiedName,
			DisplayName:   doc.Source.DisplayName,
		}); err != nil {
			return engine.BatchResult{}, errors.WrapResource("register", "source", doc.Source.QualifiedName, err)
		}
	}

	return eng.Batch().UpsertMany(ctx, user, doc.Payloads(), doc.Source.QualifiedName)
}

func format(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".json") {
		return "json"
	}
	return "yaml"
}
