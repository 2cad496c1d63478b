package main

import (
	"os"

	"github.com/cellar-market/wine-marketplace/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
