// Command bond maintains bond reference observation files.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/bond/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "bond: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
