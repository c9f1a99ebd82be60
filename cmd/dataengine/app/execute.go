package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/dataengine/cmd/dataengine/cmd/completion"
	"github.com/agentstation/dataengine/cmd/dataengine/cmd/ingest"
	"github.com/agentstation/dataengine/cmd/dataengine/cmd/list"
	"github.com/agentstation/dataengine/cmd/dataengine/cmd/lookup"
	"github.com/agentstation/dataengine/cmd/dataengine/cmd/remove"
	"github.com/agentstation/dataengine/cmd/dataengine/cmd/source"
	"github.com/agentstation/dataengine/cmd/dataengine/cmd/version"
	"github.com/agentstation/dataengine/internal/cmd/output"
	"github.com/agentstation/dataengine/pkg/constants"
	"github.com/agentstation/dataengine/pkg/logging"
)

// Execute runs the dataengine CLI application with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)

	ctx, cancel := context.WithTimeout(ctx, constants.CommandTimeout)
	defer cancel()
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     constants.AppName,
		Short:   "Metadata catalog reconciliation engine",
		Version: a.version,
		Long: `Dataengine keeps a catalog of containers, schema types and fields in step
with the external sources that report them.

Sources push what they currently see; dataengine creates what is new,
updates what changed and records which source owns each object.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "Core Commands:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands:",
	})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.config.ConfigFile, "config", "", "config file (default is $HOME/.dataengine.yaml)")
	flags.BoolP("verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	flags.BoolP("quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	flags.StringP("format", "o", "", "output format: table, json, yaml, wide")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")
	flags.String("user", "", "user to act as")
	flags.String("driver", "", "repository driver: memory or sqlite")
	flags.String("path", "", "repository file (snapshot for memory, database for sqlite)")

	rootCmd.SetVersionTemplate(constants.AppName + " {{.Version}}\n")

	a.registerCommands(rootCmd)
	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Changed("config") {
		config, err := LoadConfigFile(a.config.ConfigFile)
		if err != nil {
			return err
		}
		a.config = config
	}

	a.config.UpdateFromFlags(
		mustGetBool(cmd, "verbose"),
		mustGetBool(cmd, "quiet"),
		mustGetString(cmd, "format"),
		mustGetString(cmd, "log-level"),
		mustGetString(cmd, "user"),
		mustGetString(cmd, "driver"),
		mustGetString(cmd, "path"),
	)
	if _, err := output.ParseFormat(a.config.Format); err != nil {
		return err
	}

	logger := NewLogger(a.config)
	a.logger = &logger
	logging.SetDefault(logger)
	return nil
}

func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(ingest.NewCommand(a))
	rootCmd.AddCommand(lookup.NewCommand(a))
	rootCmd.AddCommand(list.NewCommand(a))
	rootCmd.AddCommand(remove.NewCommand(a))

	// Management commands
	rootCmd.AddCommand(source.NewCommand(a))

	// Utility commands
	rootCmd.AddCommand(version.NewCommand(a))
	rootCmd.AddCommand(completion.NewCommand())
}

// ExitOnError prints err and exits with status 1.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetBool retrieves a boolean flag defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag defined in this package.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
