// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/kickwatch/internal/config"
	"github.com/tomtom215/kickwatch/internal/kick"
	"github.com/tomtom215/kickwatch/internal/models"
	"github.com/tomtom215/kickwatch/internal/render"
)

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <username>",
		Short: "Fetch a Kick channel and print its normalized status as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := fetchOnce(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), info)
		},
	}
}

func previewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview <username>",
		Short: "Print the live notification embed for a Kick channel as JSON",
		Long: "Print the live notification embed for a Kick channel as JSON.\n" +
			"Offline channels are filled with preview data.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := fetchOnce(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), render.TestPreview(info, render.DefaultOptions(time.Now())))
		},
	}
}

func fetchOnce(ctx context.Context, username string) (*models.StreamInfo, error) {
	cfg, err := config.LoadOffline()
	if err != nil {
		return nil, err
	}
	initLogging(cfg)

	client := kick.NewClient(&cfg.Kick)
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, cfg.Kick.Timeout)
	defer cancel()

	info, err := client.Fetch(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", username, err)
	}
	return info, nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
