package main

import (
	"os"

	"github.com/majorcontext/scrub/cmd/scrub/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
