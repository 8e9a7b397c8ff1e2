package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sghaida/ctxdi/internal/spec"
)

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <spec>",
		Short: "Print the parsed IR of one spec file as JSON",
		Long: `Parse runs only the tokenizer and parser on one spec file and prints its
intermediate representation. Useful when a spec does not do what you expect.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runParse(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	data, err := readSpec(formatter, path)
	if err != nil {
		return err
	}
	file, err := spec.Parse(path, data)
	if err != nil {
		return outputSpecErrors(formatter, flatten(err))
	}
	formatter.VerboseLog("Parsed %d import(s), %d interface(s), %d context(s)",
		len(file.Imports), len(file.Interfaces), len(file.Contexts))

	if formatter.Format == "json" {
		return formatter.Success(file)
	}
	out, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeIO, fmt.Sprintf("encoding IR: %v", err))
	}
	_, err = fmt.Fprintf(formatter.Writer, "%s\n", out)
	return err
}
