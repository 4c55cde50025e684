package utils

import "github.com/spf13/cobra"

// PropagatePersistentPreRun runs the PersistentPreRun of the parent command, so the global options are loaded
// before the subcommand reads them.
func PropagatePersistentPreRun(cmd *cobra.Command, args []string) {
	if parent := cmd.Parent(); parent != nil && parent.PersistentPreRun != nil {
		parent.PersistentPreRun(parent, args)
	}
}

// CallHelpCommand prints the help of commands that only group subcommands.
func CallHelpCommand(cmd *cobra.Command, _ []string) error {
	if err := cmd.Help(); err != nil {
		return err
	}
	return nil
}
