// Package config loads ctxdi.yaml, the project file that lists generation jobs so a
// single `ctxdi generate --config` run can regenerate every unit of a module.
//
//	runtime: github.com/sghaida/ctxdi/di   # optional
//	assert: true                           # optional
//	jobs:
//	  - name: app
//	    specs: [app.di]
//	    out: app_ctxdi.gen.go
//	    package: app                       # optional
//
// Relative paths are resolved against the directory of the config file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file `ctxdi generate` reads from the working directory
// when neither --config nor --spec is given.
const DefaultFile = "ctxdi.yaml"

// Config is a parsed ctxdi.yaml.
type Config struct {
	Path    string // absolute path of the file
	Runtime string
	Assert  bool
	Jobs    []Job
}

// Job is one generation unit: a set of spec files rendered into one Go file.
type Job struct {
	Name    string
	Specs   []string // absolute
	Out     string   // absolute
	Package string
	Runtime string // job override, else Config.Runtime
	Assert  bool
}

type configFile struct {
	Runtime string    `yaml:"runtime"`
	Assert  bool      `yaml:"assert"`
	Jobs    []jobFile `yaml:"jobs"`
}

type jobFile struct {
	Name    string   `yaml:"name"`
	Specs   []string `yaml:"specs"`
	Out     string   `yaml:"out"`
	Package string   `yaml:"package"`
	Runtime string   `yaml:"runtime"`
	Assert  *bool    `yaml:"assert"`
}

// ValidationError aggregates config validation failures.
type ValidationError struct {
	Path   string
	Issues []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("config: ")
	b.WriteString(filepath.ToSlash(e.Path))
	b.WriteString(": validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// ErrEmpty is returned for a config file without any document.
var ErrEmpty = errors.New("config: empty file")

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", absPath, err)
	}
	defer file.Close()
	return Decode(file, absPath)
}

// Decode parses a config document. path locates the file; relative job paths are
// resolved against its directory.
func Decode(r io.Reader, path string) (*Config, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var raw configFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s", ErrEmpty, filepath.ToSlash(path))
		}
		return nil, fmt.Errorf("config: parse %s: %w", filepath.ToSlash(path), err)
	}

	cfg := raw.toConfig(path)
	if err := raw.validate(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (f configFile) toConfig(path string) *Config {
	dir := filepath.Dir(path)
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, filepath.FromSlash(p))
	}

	cfg := &Config{Path: path, Runtime: strings.TrimSpace(f.Runtime), Assert: f.Assert}
	for _, j := range f.Jobs {
		job := Job{
			Name:    j.Name,
			Out:     resolve(j.Out),
			Package: strings.TrimSpace(j.Package),
			Runtime: strings.TrimSpace(j.Runtime),
			Assert:  f.Assert,
		}
		if job.Runtime == "" {
			job.Runtime = cfg.Runtime
		}
		if j.Assert != nil {
			job.Assert = *j.Assert
		}
		for _, s := range j.Specs {
			job.Specs = append(job.Specs, resolve(s))
		}
		cfg.Jobs = append(cfg.Jobs, job)
	}
	return cfg
}

func (f configFile) validate(path string) error {
	errs := ValidationError{Path: path}
	if len(f.Jobs) == 0 {
		errs.Issues = append(errs.Issues, "jobs must not be empty")
	}
	names := map[string]int{}
	outs := map[string]int{}
	for i, j := range f.Jobs {
		label := fmt.Sprintf("jobs[%d]", i)
		if j.Name != "" {
			label = fmt.Sprintf("jobs[%d] (%s)", i, j.Name)
			if prev, dup := names[j.Name]; dup {
				errs.Issues = append(errs.Issues, fmt.Sprintf("%s: name already used by jobs[%d]", label, prev))
			}
			names[j.Name] = i
		}
		if len(j.Specs) == 0 {
			errs.Issues = append(errs.Issues, label+": specs must not be empty")
		}
		for k, s := range j.Specs {
			if strings.TrimSpace(s) == "" {
				errs.Issues = append(errs.Issues, fmt.Sprintf("%s: specs[%d] must be a non-empty path", label, k))
			}
		}
		switch out := strings.TrimSpace(j.Out); {
		case out == "":
			errs.Issues = append(errs.Issues, label+": out must be provided")
		case !strings.HasSuffix(out, ".go"):
			errs.Issues = append(errs.Issues, label+": out must be a .go file")
		default:
			if prev, dup := outs[out]; dup {
				errs.Issues = append(errs.Issues, fmt.Sprintf("%s: out already written by jobs[%d]", label, prev))
			}
			outs[out] = i
		}
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

// Label names the job in diagnostics.
func (j Job) Label() string {
	if j.Name != "" {
		return j.Name
	}
	return filepath.Base(j.Out)
}
