package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sghaida/ctxdi/internal/compiler"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Runtime string
}

// CheckResult is the satisfaction matrix of a unit.
type CheckResult struct {
	Interfaces []string    `json:"interfaces"`
	Contexts   []string    `json:"contexts"`
	Matrix     []CheckCell `json:"matrix"`
}

// CheckCell reports whether one context satisfies one interface.
type CheckCell struct {
	Context   string   `json:"context"`
	Interface string   `json:"interface"`
	Satisfied bool     `json:"satisfied"`
	Missing   []string `json:"missing,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <spec>...",
		Short: "Compile specs and print which contexts satisfy which interfaces",
		Long: `Check compiles the given spec files as one unit without writing anything and
prints the satisfaction matrix: for every context and interface, whether the
context provides every capability the interface requires, and what is missing.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Runtime, "runtime", "", "import path of the di runtime")

	return cmd
}

func runCheck(opts *CheckOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	runtime := opts.Runtime
	if runtime == "" {
		runtime = compiler.DefaultRuntime
	}
	u, err := loadUnit(formatter, paths, runtime)
	if err != nil {
		return err
	}
	return outputCheckSuccess(formatter, checkResult(u.pkg))
}

func checkResult(pkg *compiler.Package) CheckResult {
	res := CheckResult{Interfaces: []string{}, Contexts: []string{}, Matrix: []CheckCell{}}
	for _, i := range pkg.Interfaces {
		res.Interfaces = append(res.Interfaces, i.Name)
	}
	for _, c := range pkg.Contexts {
		res.Contexts = append(res.Contexts, c.Name)
	}
	for _, s := range pkg.Matrix() {
		cell := CheckCell{Context: s.Context, Interface: s.Interface, Satisfied: s.OK}
		for _, m := range s.Missing {
			cell.Missing = append(cell.Missing, m.String())
		}
		res.Matrix = append(res.Matrix, cell)
	}
	return res
}

func outputCheckSuccess(f *OutputFormatter, res CheckResult) error {
	if f.Format == "json" {
		return f.Success(res)
	}

	fmt.Fprintf(f.Writer, "✓ Checked %d interface(s), %d context(s)\n", len(res.Interfaces), len(res.Contexts))
	current := ""
	for _, cell := range res.Matrix {
		if cell.Context != current {
			current = cell.Context
			fmt.Fprintf(f.Writer, "\n%s\n", current)
		}
		if cell.Satisfied {
			fmt.Fprintf(f.Writer, "  ✓ %s\n", cell.Interface)
			continue
		}
		fmt.Fprintf(f.Writer, "  ✗ %s: missing %s\n", cell.Interface, strings.Join(cell.Missing, ", "))
	}
	return nil
}
