// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quantumix Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Quantumix CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quantumix",
		Short: "Quantumix - a multi-tenant task and project tracker",
		Long: `Quantumix is a task and project tracker backend with tiered
permissions, device-bound rotating sessions, and 4-digit public
account sequences.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
