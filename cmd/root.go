// Package cmd wires the CLI commands for the VipuDev backend.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vipudev",
	Short: "VipuDev - AI developer dashboard backend",
	Long: `VipuDev is the backend for the VipuDev.AI developer dashboard.

It serves the dashboard's JSON API: project and chat storage, AI assistant
calls, sandboxed code execution, and project packaging. Running vipudev with
no arguments starts the HTTP server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
