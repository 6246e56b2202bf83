package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the sysprop command tree.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "sysprop",
		Short: "Physical property calculator catalogue",
		Long:  "sysprop serves a catalogue of property calculators over HTTP and runs them from the command line.",
		// SilenceUsage prevents printing usage on every error
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "Path to a JSON or YAML config file")
	root.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	root.Version = version
	root.SetVersionTemplate(fmt.Sprintf("sysprop version %s\n", version))

	root.AddCommand(NewServeCmd())
	root.AddCommand(NewToolsCmd())
	root.AddCommand(NewCallCmd())
	root.AddCommand(NewStdioCmd())
	return root
}
