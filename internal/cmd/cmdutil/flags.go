// Package cmdutil provides shared flags and argument parsing for dataengine commands.
package cmdutil

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/dataengine/pkg/catalog"
)

// SourceFlags identifies the external source a command acts for.
type SourceFlags struct {
	Source string
}

// AddSourceFlags adds the --source flag to a command and marks it required.
func AddSourceFlags(cmd *cobra.Command) *SourceFlags {
	flags := &SourceFlags{}
	cmd.Flags().StringVarP(&flags.Source, "source", "s", "",
		"Qualified name of the external source")
	_ = cmd.MarkFlagRequired("source")
	return flags
}

// ReadFlags holds flags shared by read commands.
type ReadFlags struct {
	IncludeDeleted bool
}

// AddReadFlags adds read flags to a command.
func AddReadFlags(cmd *cobra.Command) *ReadFlags {
	flags := &ReadFlags{}
	cmd.Flags().BoolVar(&flags.IncludeDeleted, "include-deleted", false,
		"Include soft-deleted objects")
	return flags
}

// KindArgs validates that the first positional argument names a kind.
func KindArgs(n int) cobra.PositionalArgs {
	return cobra.MatchAll(cobra.ExactArgs(n), func(_ *cobra.Command, args []string) error {
		_, err := catalog.ParseKind(args[0])
		return err
	})
}

// KindCompletions offers the kind names for shell completion.
func KindCompletions(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	kinds := catalog.Kinds()
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, k.String())
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
