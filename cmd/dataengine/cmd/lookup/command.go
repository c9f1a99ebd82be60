// Package lookup implements the lookup command.
package lookup

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/dataengine/internal/cmd/application"
	cmdcatalog "github.com/agentstation/dataengine/internal/cmd/catalog"
	"github.com/agentstation/dataengine/internal/cmd/cmdutil"
	"github.com/agentstation/dataengine/internal/cmd/output"
	"github.com/agentstation/dataengine/pkg/catalog"
	"github.com/agentstation/dataengine/pkg/errors"
)

// NewCommand creates the lookup command.
func NewCommand(app application.Application) *cobra.Command {
	var flags *cmdutil.ReadFlags

	cmd := &cobra.Command{
		Use:     "lookup <kind> <qualified-name>",
		GroupID: "core",
		Short:   "Show one catalogued object",
		Long: `Lookup finds an object by kind and exact, case-sensitive qualified name and
shows it with its owning source and relationships.

Kinds: Container, SchemaType, Field.`,
		Example: `  dataengine lookup Container db1
  dataengine lookup Field db1.orders.id --include-deleted -o yaml`,
		Args:              cmdutil.KindArgs(2),
		ValidArgsFunction: cmdutil.KindCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			kind := catalog.Kind(args[0])
			user := app.User()

			eng, err := app.Engine(ctx)
			if err != nil {
				return err
			}
			find := eng.Lookup().Find
			if flags.IncludeDeleted {
				find = eng.Lookup().FindAny
			}
			obj, found, err := find(ctx, user, args[1], kind)
			if err != nil {
				return err
			}
			if !found {
				return errors.NewNotFoundError(kind.String(), args[1])
			}

			repo, err := app.Repository(ctx)
			if err != nil {
				return err
			}
			rels, err := repo.Relationships(ctx, user, obj.ID)
			if err != nil {
				return err
			}
			names, err := cmdcatalog.Names(ctx, repo, user, obj, rels)
			if err != nil {
				return err
			}
			return output.NewPrinter(cmd.OutOrStdout(), app.OutputFormat()).Object(obj, rels, names)
		},
	}
	flags = cmdutil.AddReadFlags(cmd)
	return cmd
}
