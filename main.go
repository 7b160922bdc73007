package main

import (
	"os"

	"github.com/energinet-labs/prosumer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
