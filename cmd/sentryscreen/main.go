// Package main provides the entry point for the sentryscreen CLI.
package main

import (
	"os"

	"github.com/sentryscreen/sentryscreen/cmd/sentryscreen/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
