// Command ctxdi generates dependency contexts and interface views from .di specs.
//
// Typical use is through go generate, next to the spec:
//
//	//go:generate go run github.com/sghaida/ctxdi/cmd/ctxdi generate --spec app.di --out app_ctxdi.gen.go
//
// Run `ctxdi --help` for every command and flag.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sghaida/ctxdi/internal/cli"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cmd := cli.NewRootCommand()
	cmd.SetArgs(args)

	err := cmd.Execute()
	var exitErr *cli.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		// cobra flag and argument errors are not reported by the commands themselves
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return cli.GetExitCode(err)
}
