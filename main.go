package main

import (
	"os"

	"github.com/kartikeyarokde/go-ecg-graph/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
