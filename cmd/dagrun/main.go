// Command dagrun is a small operational wrapper around the dagrun engine:
// it loads a declarative graph file (a selection of built-in demo nodes
// plus a builder output list, see graph.go) and compiles, runs, or
// validates it. It exists to exercise the library end to end from the
// command line, not to replace the Go authoring surface.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const cliName = "dagrun"

func main() {
	rootCmd := &cobra.Command{
		Use:   cliName,
		Short: "dagrun — declarative asynchronous dataflow engine",
	}

	rootCmd.AddCommand(newCompileCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newValidateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
