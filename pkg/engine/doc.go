// Package engine reconciles externally sourced descriptions of catalogued
// objects into a metadata repository.
//
// Every write is keyed by (kind, qualified name): the first sighting of a
// name creates the object, tagged with the source that reported it, and every
// later sighting updates its display name and properties in place. Ids,
// owning sources and parents never change after creation.
//
// The engine holds no catalog state. Uniqueness under concurrent writers is
// the repository's job; a ConflictError from Create is answered by one fresh
// lookup and an update.
//
//	eng, err := engine.New(memory.New())
//	id, err := eng.Registrar().Register(ctx, user, catalog.ExternalSource{QualifiedName: "warehouse"})
//	res, err := eng.Batch().UpsertContainers(ctx, user, containers, "warehouse")
package engine
