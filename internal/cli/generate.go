package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sghaida/ctxdi/internal/codegen"
	"github.com/sghaida/ctxdi/internal/config"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Specs   []string
	Out     string
	Package string
	Runtime string
	Assert  bool
	Config  string
}

// GenerateResult describes one written file.
type GenerateResult struct {
	Job        string `json:"job"`
	Out        string `json:"out"`
	Package    string `json:"package"`
	Runtime    string `json:"runtime"`
	Interfaces int    `json:"interfaces"`
	Contexts   int    `json:"contexts"`
	Asserted   bool   `json:"asserted"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate Go code from spec files",
		Long: `Generate compiles one unit of spec files into one Go file.

Either name the unit with flags:

  ctxdi generate --spec app.di --out app_ctxdi.gen.go

or run every job of a project file:

  ctxdi generate --config ctxdi.yaml

Without flags, ./ctxdi.yaml is used when it exists.

Nothing is written when a spec has errors.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, cmd)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Specs, "spec", "s", nil, "spec file (repeatable)")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output .go file")
	cmd.Flags().StringVar(&opts.Package, "package", "", "package name of the output (inferred when empty)")
	cmd.Flags().StringVar(&opts.Runtime, "runtime", "", "import path of the di runtime (inferred when empty)")
	cmd.Flags().BoolVar(&opts.Assert, "assert", false, "emit compile-time satisfaction assertions")
	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "project file listing generation jobs")

	return cmd
}

func runGenerate(opts *GenerateOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	jobs, err := generateJobs(opts, formatter)
	if err != nil {
		return err
	}

	results := make([]GenerateResult, 0, len(jobs))
	for _, job := range jobs {
		res, err := runJob(formatter, job)
		if err != nil {
			return err
		}
		results = append(results, res)
	}
	return outputGenerateSuccess(formatter, results)
}

// generateJobs turns either the flags or the config file into jobs.
func generateJobs(opts *GenerateOptions, f *OutputFormatter) ([]config.Job, error) {
	if opts.Config == "" && len(opts.Specs) == 0 && opts.Out == "" && opts.Package == "" && fileExists(config.DefaultFile) {
		f.VerboseLog("Using %s from the working directory", config.DefaultFile)
		opts.Config = config.DefaultFile
	}
	if opts.Config != "" {
		if len(opts.Specs) > 0 || opts.Out != "" || opts.Package != "" {
			return nil, f.fail(ExitCommandError, ErrCodeConfig, "--config cannot be combined with --spec, --out or --package")
		}
		cfg, err := config.Load(opts.Config)
		if err != nil {
			return nil, f.fail(ExitCommandError, ErrCodeConfig, err.Error())
		}
		f.VerboseLog("Loaded %d job(s) from %s", len(cfg.Jobs), cfg.Path)
		jobs := cfg.Jobs
		for i := range jobs {
			if opts.Runtime != "" {
				jobs[i].Runtime = opts.Runtime
			}
			jobs[i].Assert = jobs[i].Assert || opts.Assert
		}
		return jobs, nil
	}

	switch {
	case len(opts.Specs) == 0:
		return nil, f.fail(ExitCommandError, ErrCodeConfig, "missing --spec (or --config)")
	case strings.TrimSpace(opts.Out) == "":
		return nil, f.fail(ExitCommandError, ErrCodeConfig, "missing --out")
	case !strings.HasSuffix(opts.Out, ".go"):
		return nil, f.fail(ExitCommandError, ErrCodeConfig, "--out must be a .go file")
	}
	return []config.Job{{
		Specs:   opts.Specs,
		Out:     opts.Out,
		Package: opts.Package,
		Runtime: opts.Runtime,
		Assert:  opts.Assert,
	}}, nil
}

func runJob(f *OutputFormatter, job config.Job) (GenerateResult, error) {
	outDir := filepath.Dir(job.Out)
	runtime := codegen.InferRuntime(outDir, job.Runtime)
	f.VerboseLog("Job %s: %d spec(s) -> %s", job.Label(), len(job.Specs), job.Out)

	u, err := loadUnit(f, job.Specs, runtime)
	if err != nil {
		return GenerateResult{}, err
	}

	pkgName, err := codegen.InferPackage(u.pkg.Name, job.Package, outDir)
	if err != nil {
		return GenerateResult{}, f.fail(ExitCommandError, ErrCodeConfig, err.Error())
	}

	err = codegen.WriteFile(job.Out, u.pkg, codegen.Options{
		Package: pkgName,
		Assert:  job.Assert,
		Sources: u.sources,
		Types:   codegen.ScanTypes(outDir),
	})
	var fe *codegen.FormatError
	switch {
	case errors.As(err, &fe):
		return GenerateResult{}, f.fail(ExitFailure, ErrCodeFormat, fmt.Sprintf("%v (raw output written to %s)", err, job.Out))
	case err != nil:
		return GenerateResult{}, f.fail(ExitCommandError, ErrCodeIO, fmt.Sprintf("writing output file: %v", err))
	}

	return GenerateResult{
		Job:        job.Label(),
		Out:        job.Out,
		Package:    pkgName,
		Runtime:    runtime,
		Interfaces: len(u.pkg.Interfaces),
		Contexts:   len(u.pkg.Contexts),
		Asserted:   job.Assert,
	}, nil
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

func outputGenerateSuccess(f *OutputFormatter, results []GenerateResult) error {
	if f.Format == "json" {
		return f.Success(results)
	}
	for _, r := range results {
		fmt.Fprintf(f.Writer, "✓ Generated %s (package %s): %d interface(s), %d context(s)\n",
			r.Out, r.Package, r.Interfaces, r.Contexts)
	}
	return nil
}
