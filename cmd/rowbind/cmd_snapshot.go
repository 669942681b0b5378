package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rowbind/rowbind/compiler/gen"
)

func newSnapshotCmd() *cobra.Command {
	var (
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Export the module schema for drift detection",
		Long: "Snapshot exports a stable encoding of the module schema and its\n" +
			"fingerprint. Comparing snapshots (or just fingerprints) between\n" +
			"builds reveals whether regeneration is needed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := buildModule()
			if err != nil {
				return fmt.Errorf("build module: %w", err)
			}

			snap := gen.Snapshot(module)
			var data []byte
			switch format {
			case "msgpack":
				data, err = snap.MarshalBinary()
			case "json":
				data, err = snap.MarshalJSON()
			default:
				return fmt.Errorf("unknown format %q (use msgpack or json)", format)
			}
			if err != nil {
				return err
			}

			fp, err := gen.Fingerprint(module)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema fingerprint: %s\n", fp)

			if out == "" {
				if format == "json" {
					fmt.Fprintln(cmd.OutOrStdout(), string(data))
				}
				return nil
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "msgpack", "encoding: msgpack or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: print fingerprint only)")
	return cmd
}
