package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	transporthttp "github.com/slighter12/sysprop-go/transport/http"
)

// NewToolsCmd creates the "tools" subcommand.
func NewToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the tool catalogue as JSON",
		Args:  cobra.NoArgs,
		RunE:  runTools,
	}
}

func runTools(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	data, err := json.MarshalIndent(transporthttp.Catalogue(a.registry), "", "  ")
	if err != nil {
		return exitError(exitRuntime, "encoding catalogue: %v", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
