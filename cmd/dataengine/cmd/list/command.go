// Package list implements the list command.
package list

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/dataengine/internal/cmd/application"
	cmdcatalog "github.com/agentstation/dataengine/internal/cmd/catalog"
	"github.com/agentstation/dataengine/internal/cmd/cmdutil"
	"github.com/agentstation/dataengine/internal/cmd/output"
	"github.com/agentstation/dataengine/pkg/catalog"
	"github.com/agentstation/dataengine/pkg/repository"
)

// NewCommand creates the list command.
func NewCommand(app application.Application) *cobra.Command {
	var flags *cmdutil.ReadFlags

	cmd := &cobra.Command{
		Use:               "list <kind>",
		Aliases:           []string{"ls"},
		GroupID:           "core",
		Short:             "List catalogued objects of one kind",
		Example:           `  dataengine list SchemaType --include-deleted -o wide`,
		Args:              cmdutil.KindArgs(1),
		ValidArgsFunction: cmdutil.KindCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			user := app.User()

			repo, err := app.Repository(ctx)
			if err != nil {
				return err
			}

			var opts []repository.FindOption
			if flags.IncludeDeleted {
				opts = append(opts, repository.IncludeDeleted())
			}
			objects, err := repo.List(ctx, user, catalog.Kind(args[0]), opts...)
			if err != nil {
				return err
			}

			sources, err := cmdcatalog.SourceNames(ctx, repo, user)
			if err != nil {
				return err
			}
			app.Logger().Debug().Int("count", len(objects)).Str("kind", args[0]).Msg("Listed objects")
			return output.NewPrinter(cmd.OutOrStdout(), app.OutputFormat()).Objects(objects, sources)
		},
	}
	flags = cmdutil.AddReadFlags(cmd)
	return cmd
}
