// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Optional; real environment variables win over .env.
	_ = godotenv.Load(".env")

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "kickwatch",
		Short:        "Kick.com live stream alerts for Discord",
		SilenceUsage: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(previewCmd())
	return root
}
