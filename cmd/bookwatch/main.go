// Package main is the entry point for bookwatch.
package main

import (
	"os"

	"github.com/donaldgifford/bookwatch/cmd/bookwatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
