package main

import (
	"errors"
	"os"

	"github.com/slighter12/sysprop-go/cli"
)

// Set via ldflags at build time.
var version = "dev"

func main() {
	if err := cli.NewRootCmd(version).Execute(); err != nil {
		if exitErr, ok := errors.AsType[*cli.ExitError](err); ok {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
