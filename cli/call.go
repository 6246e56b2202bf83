package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/slighter12/sysprop-go/dispatch"
	"github.com/slighter12/sysprop-go/render"
	"github.com/slighter12/sysprop-go/schema"
)

// NewCallCmd creates the "call" subcommand.
func NewCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Run one tool with a JSON payload read from stdin",
		Long: "Run one tool with a JSON object read from stdin (or --input) through the same\n" +
			"conversion, validation and rendering pipeline as the HTTP API.",
		Args: cobra.ExactArgs(1),
		RunE: runCall,
	}

	cmd.Flags().String("accept", render.MediaJSON, "Accept header used to pick the output format")
	cmd.Flags().StringP("input", "i", "", "Read the payload from a file instead of stdin")

	return cmd
}

func runCall(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	in := cmd.InOrStdin()
	if path, _ := cmd.Flags().GetString("input"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return exitError(exitInputParse, "opening input: %v", err)
		}
		defer f.Close()
		in = f
	}
	accept, _ := cmd.Flags().GetString("accept")

	resp, err := a.dispatcher.Dispatch(cmd.Context(), dispatch.Request{
		Tool:          args[0],
		Source:        schema.SourceJSON,
		Body:          in,
		ContentLength: -1,
		Accept:        accept,
	})
	if err != nil {
		return callError(err)
	}

	out := cmd.OutOrStdout()
	out.Write(resp.Body)
	if len(resp.Body) == 0 || resp.Body[len(resp.Body)-1] != '\n' {
		fmt.Fprintln(out)
	}
	return nil
}

func callError(err error) error {
	derr, ok := errors.AsType[*dispatch.Error](err)
	if !ok {
		return exitError(exitRuntime, "%v", err)
	}
	switch {
	case dispatch.IsNotFound(err):
		return exitError(exitNotFound, "%s", derr.Message)
	case dispatch.IsValidation(err):
		lines := make([]string, 0, len(derr.Fields)+1)
		lines = append(lines, derr.Message+":")
		for _, f := range derr.Fields {
			lines = append(lines, fmt.Sprintf("  %s: %s", f.Field, f.Message))
		}
		return exitError(exitValidation, "%s", strings.Join(lines, "\n"))
	case dispatch.IsBadPayload(err), dispatch.IsPayloadTooLarge(err):
		return exitError(exitInputParse, "%s", derr.Message)
	}
	return exitError(exitRuntime, "%s", derr.Message)
}
