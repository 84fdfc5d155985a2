package main

import (
	"os"

	"github.com/counterdeskhq/counterdesk/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}