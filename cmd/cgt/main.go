// Package main is the entry point for the cgt CLI.
package main

import (
	"os"

	"github.com/agbgames/cgt/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
