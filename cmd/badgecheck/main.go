// Package main is the entry point for the badgecheck CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "badgecheck",
	Short: "Open Badges verifier",
	Long: `Verifies Open Badges assertions in versions 0.5 through 2.0.
Accepts hosted assertion URLs, JSON documents, signed JWS assertions and local files.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// An invalid badge has already been reported on stdout.
		if !errors.Is(err, errInvalid) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
