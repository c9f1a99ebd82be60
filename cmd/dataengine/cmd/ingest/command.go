// Package ingest implements the ingest command.
package ingest

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/dataengine/internal/cmd/application"
	"github.com/agentstation/dataengine/internal/cmd/output"
	"github.com/agentstation/dataengine/internal/ingest"
	"github.com/agentstation/dataengine/pkg/logging"
)

// NewCommand creates the ingest command.
func NewCommand(app application.Application) *cobra.Command {
	var register bool

	cmd := &cobra.Command{
		Use:     "ingest <file>",
		GroupID: "core",
		Short:   "Reconcile an ingestion document into the catalog",
		Long: `Ingest reads a YAML or JSON document describing the containers, schema
types and fields owned by one external source and upserts them in order.

Objects are keyed by qualified name: unseen names are created, known names
have their display name and properties replaced. Nothing is ever removed by
omission. The first failing object stops the run; objects applied before it
stay applied, so the same document can simply be ingested again.`,
		Example: `  dataengine ingest batch.yaml
  dataengine ingest batch.json --register -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.WithLogger(cmd.Context(), app.Logger())

			doc, err := ingest.Load(args[0])
			if err != nil {
				return err
			}
			if register {
				doc.Source.Register = true
			}

			eng, err := app.Engine(ctx)
			if err != nil {
				return err
			}

			result, applyErr := ingest.Apply(ctx, eng, app.User(), doc)
			if len(result.Items) > 0 || applyErr == nil {
				if err := output.NewPrinter(cmd.OutOrStdout(), app.OutputFormat()).Batch(result); err != nil {
					return err
				}
			}
			return applyErr
		},
	}
	cmd.Flags().BoolVar(&register, "register", false, "Register the document's source if it is unknown")
	return cmd
}
