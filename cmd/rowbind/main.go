// Package main provides the rowbind CLI: it assembles the module
// schema in memory and drives the code generator, writing the
// generated client bindings to disk.
//
// Usage:
//
//	rowbind generate --target go --out bindings   # Generate bindings
//	rowbind generate --config rowbind.yaml        # Settings from YAML
//	rowbind generate --watch                      # Regenerate on config change
//	rowbind snapshot --format json                # Export the schema
//	rowbind targets                               # List registered targets
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// Language targets register themselves on import.
	_ "github.com/rowbind/rowbind/compiler/gen/golang"
	_ "github.com/rowbind/rowbind/compiler/gen/python"
	_ "github.com/rowbind/rowbind/compiler/gen/typescript"
)

// version is set via ldflags during build: -ldflags="-X main.version=v1.0.0"
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rowbind",
		Short:         "Generate client bindings from a rowbind module schema",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newGenerateCmd())
	root.AddCommand(newSnapshotCmd())
	root.AddCommand(newTargetsCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
