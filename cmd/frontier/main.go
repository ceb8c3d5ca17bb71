package main

import (
	"os"

	"github.com/quantcase/frontier/cmd/frontier/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
