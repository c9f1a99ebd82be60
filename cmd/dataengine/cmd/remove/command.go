// Package remove implements the remove command.
package remove

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/dataengine/internal/cmd/application"
	"github.com/agentstation/dataengine/internal/cmd/cmdutil"
	"github.com/agentstation/dataengine/pkg/catalog"
	"github.com/agentstation/dataengine/pkg/logging"
)

// NewCommand creates the remove command.
func NewCommand(app application.Application) *cobra.Command {
	var (
		sourceFlags *cmdutil.SourceFlags
		semantic    string
	)

	cmd := &cobra.Command{
		Use:     "remove <kind> <qualified-name>",
		Aliases: []string{"rm"},
		GroupID: "core",
		Short:   "Remove a catalogued object",
		Long: `Remove deletes one object on behalf of an external source.

A soft delete leaves a tombstone that lookup --include-deleted still shows.
A hard delete purges the object and its relationships, and is refused while
the object still has live children. Children are never removed with their
parent.`,
		Example: `  dataengine remove SchemaType db1.orders --source warehouse
  dataengine remove Container db1 --source warehouse --semantic hard`,
		Args:              cmdutil.KindArgs(2),
		ValidArgsFunction: cmdutil.KindCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.WithLogger(cmd.Context(), app.Logger())
			kind := catalog.Kind(args[0])

			sem, err := catalog.ParseDeleteSemantic(semantic)
			if err != nil {
				return err
			}

			eng, err := app.Engine(ctx)
			if err != nil {
				return err
			}
			if err := eng.Remover().RemoveByQualifiedName(ctx, app.User(), kind, args[1], sourceFlags.Source, sem); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s removed (%s)\n", kind, args[1], sem)
			return err
		},
	}
	sourceFlags = cmdutil.AddSourceFlags(cmd)
	cmd.Flags().StringVar(&semantic, "semantic", string(catalog.DeleteSoft), "Delete semantic: soft or hard")
	return cmd
}
