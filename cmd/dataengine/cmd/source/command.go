// Package source implements the source command group.
package source

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/dataengine/internal/cmd/application"
	"github.com/agentstation/dataengine/internal/cmd/output"
	"github.com/agentstation/dataengine/pkg/catalog"
)

// NewCommand creates the source command with its subcommands.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "source",
		GroupID: "management",
		Short:   "Manage external sources",
		Long: `External sources are the producers that report objects into the catalog.
A source must be registered before any of its objects can be ingested.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newRegisterCommand(app))
	cmd.AddCommand(newResolveCommand(app))
	cmd.AddCommand(newListCommand(app))
	return cmd
}

func newRegisterCommand(app application.Application) *cobra.Command {
	var displayName string

	cmd := &cobra.Command{
		Use:   "register <qualified-name>",
		Short: "Register an external source",
		Args:  cobra.ExactArgs(1),
		Example: `  dataengine source register warehouse
  dataengine source register warehouse --display-name "Data Warehouse"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, err := app.Engine(ctx)
			if err != nil {
				return err
			}

			src := catalog.ExternalSource{QualifiedName: args[0], DisplayName: displayName}
			id, err := eng.Registrar().Register(ctx, app.User(), src)
			if err != nil {
				return err
			}
			src.ID = id

			app.Logger().Debug().Str("source", src.QualifiedName).Str("source_id", id).Msg("Source registered")
			return output.NewPrinter(cmd.OutOrStdout(), app.OutputFormat()).Sources(src)
		},
	}
	cmd.Flags().StringVar(&displayName, "display-name", "", "Human readable name (defaults to the qualified name)")
	return cmd
}

func newResolveCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <qualified-name>",
		Short: "Show the id a source is registered under",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, err := app.Engine(ctx)
			if err != nil {
				return err
			}

			id, err := eng.Resolver().Resolve(ctx, app.User(), args[0])
			if err != nil {
				return err
			}
			return output.NewPrinter(cmd.OutOrStdout(), app.OutputFormat()).Sources(catalog.ExternalSource{
				ID:            id,
				QualifiedName: args[0],
			})
		},
	}
}

func newListCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered sources",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			repo, err := app.Repository(ctx)
			if err != nil {
				return err
			}
			sources, err := repo.ListSources(ctx, app.User())
			if err != nil {
				return err
			}
			return output.NewPrinter(cmd.OutOrStdout(), app.OutputFormat()).Sources(sources...)
		},
	}
}
