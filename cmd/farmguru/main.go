// Command farmguru is the entry point for the Farm-Guru agricultural
// assistant. It provides a CLI interface (via Cobra) and an HTTP server
// exposing the advisory API.
package main

import (
	"fmt"
	"os"

	"github.com/farm-guru/farmguru-go/cmd/farmguru/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
