package engine

import (
	"context"

	"github.com/agentstation/dataengine/pkg/catalog"
)

// ContainerReconciler upserts Containers.
type ContainerReconciler struct {
	r *reconciler
}

// Reconcile creates or updates c on behalf of the named source.
func (c *ContainerReconciler) Reconcile(ctx context.Context, user string, container catalog.Container, sourceQualifiedName string) (Result, error) {
	return c.r.reconcile(ctx, user, container.Payload(), sourceQualifiedName)
}

// SchemaTypeReconciler upserts SchemaTypes and cascades to their Fields.
type SchemaTypeReconciler struct {
	r *reconciler
}

// Reconcile creates or updates schema under its Container, then upserts
// every listed Field under it.
func (s *SchemaTypeReconciler) Reconcile(ctx context.Context, user string, schema catalog.SchemaType, sourceQualifiedName string) (Result, error) {
	return s.r.reconcile(ctx, user, schema.Payload(), sourceQualifiedName)
}

// FieldReconciler upserts Fields.
type FieldReconciler struct {
	r *reconciler
}

// Reconcile creates or updates field under its SchemaType.
func (f *FieldReconciler) Reconcile(ctx context.Context, user string, field catalog.Field, sourceQualifiedName string) (Result, error) {
	return f.r.reconcile(ctx, user, field.Payload(), sourceQualifiedName)
}
