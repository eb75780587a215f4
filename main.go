package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/clify-dev/clify/cmd"
)

func main() {
	source := cmd.SpecSourceFromArgs(os.Args[1:])

	root, err := cmd.NewRootCmd(source)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(exitCode(err))
	}

	if err := root.Execute(); err != nil {
		// Cobra is configured to not print errors. Ensure users still get a message.
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var ec interface{ ExitCode() int }
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return 1
}
