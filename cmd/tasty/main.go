// Package main provides the tasty command.
package main

import (
	"os"

	"github.com/leapstack-labs/tasty/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
