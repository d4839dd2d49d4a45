// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/canonical/sqlmapper/internal/registry"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "sqlmapperctl",
		Short:         "Inspect and validate mapper XML documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newValidateCommand())
	root.AddCommand(newDumpCommand())
	return root
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <mapper.xml>",
		Short: "Parse a mapper document and report build errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := registry.New(nil)
			if err := reg.LoadFile(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d statements\n", len(reg.All()))
			return nil
		},
	}
}

func newDumpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <mapper.xml>",
		Short: "Print the resolved statement table for a mapper document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := registry.New(nil)
			if err := reg.LoadFile(args[0]); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, stmt := range reg.All() {
				dynamic := "static"
				if stmt.Compiled.IsDynamic {
					dynamic = "dynamic"
				}
				fmt.Fprintf(out, "%-40s %-8s %s\n", stmt.ID, stmt.Kind, dynamic)
			}
			return nil
		},
	}
}
