// Package main is the entry point for the xscrape CLI.
package main

import (
	"os"

	"github.com/jmylchreest/xscrape/cmd/xscrape/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
