// Package main provides the webpilot CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/richinex/webpilot/cli"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	provider string
	verbose  bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "webpilot",
		Short: "Chat-driven web browsing with payload offloading",
		Long: `A web app backend where an LLM drives a remote headless browser on the
user's behalf. Large payloads in tool traffic (screenshots, files) are offloaded
to object storage and replaced with time-limited retrieval URLs before they
reach the model or the client.`,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "anthropic", "LLM provider (openai, anthropic, deepseek, gemini)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show verbose output")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(screenshotCmd())
	rootCmd.AddCommand(uploadsCmd())
	rootCmd.AddCommand(uploadCmd())
	rootCmd.AddCommand(toolsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func opts() cli.Options {
	return cli.Options{Provider: provider, Verbose: verbose}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the chat server",
		Long: `Run the HTTP server: POST /api/chat streams the exchange as server-sent
events, GET /api/screenshot captures the current page, GET /api/uploads lists
the upload ledger.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			return cli.Serve(ctx, opts())
		},
	}
}

func screenshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "screenshot",
		Short: "Capture the current browser page and print its URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			return cli.Screenshot(ctx, opts())
		},
	}
}

func uploadsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "uploads",
		Short: "List recent uploads from the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			return cli.Uploads(ctx, limit, opts())
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum entries to list")

	return cmd
}

func uploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload [files...]",
		Short: "Upload local files to payload storage",
		Long:  `Upload local files to payload storage at bulk width and print their retrieval URLs.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			return cli.BulkUpload(ctx, args, opts())
		},
	}
}

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List tools exposed by the browser service",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			return cli.Tools(ctx, opts())
		},
	}
}
