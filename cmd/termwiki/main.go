// Package main provides the entry point for the termwiki CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/termwiki/cmd/termwiki/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
