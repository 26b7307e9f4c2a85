package main

import (
	"os"

	"github.com/dproquant/tradecheck/cmd/tradecheck/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
