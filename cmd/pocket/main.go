// Package main provides the pocket CLI.
package main

import (
	"os"

	"github.com/mesh-intelligence/pocketbook/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
