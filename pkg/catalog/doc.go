// Package catalog defines the catalogued-object model shared by the
// reconciliation engine and the repository backends.
//
// Three kinds of object form a two-level hierarchy: a Container owns
// SchemaTypes and a SchemaType owns Fields. Every object is keyed by its
// qualified name, which is unique per kind among live objects, and carries the
// identifier of the external source that first created it.
package catalog
