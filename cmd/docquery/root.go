// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docquery Contributors

package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root docquery command with all subcommands
// registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "docquery",
		Short:         "Docquery — semantic document question answering",
		Long:          "Docquery ingests text documents, indexes them by embedding, and answers questions over them with retrieval-augmented generation.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newServeCmd(),
		newVersionCmd(),
	)

	return root
}
