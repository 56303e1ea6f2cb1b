// Memoproxy generates memoizing proxies for the services of a Go module.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/vnykmshr/memoproxy/internal/cli"
)

var version = "dev"

func main() {
	cmd := cli.NewRootCommand()
	cmd.Version = version

	if err := cmd.Execute(); err != nil {
		// commands report their own failures; only usage errors reach here unprinted
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) || exitErr.Message == "usage" {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
