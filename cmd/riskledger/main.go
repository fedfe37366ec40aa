// Command riskledger maintains a rolling registry of deduplicated, scored
// risk events, fed by research packets and queried from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/riskledger/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
