package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/rowbind/rowbind/compiler/gen"
	"github.com/rowbind/rowbind/internal/config"
)

func newGenerateCmd() *cobra.Command {
	var (
		configFile string
		targetName string
		outDir     string
		watch      bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate client bindings for the selected target(s)",
		RunE: func(cmd *cobra.Command, args []string) error {
			load := func() (*config.Config, error) {
				if configFile == "" {
					cfg := config.Default()
					if targetName != "" {
						cfg.Target = targetName
					}
					if outDir != "" {
						cfg.OutDir = outDir
					}
					return cfg, cfg.Validate()
				}
				cfg, err := config.Load(configFile)
				if err != nil {
					return nil, err
				}
				// Flags override the file.
				if targetName != "" {
					cfg.Target = targetName
					cfg.Targets = nil
				}
				if outDir != "" {
					cfg.OutDir = outDir
				}
				return cfg, nil
			}

			cfg, err := load()
			if err != nil {
				return err
			}
			if err := runGenerate(cmd, cfg); err != nil {
				if !watch {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
			}
			if !watch {
				return nil
			}
			if configFile == "" {
				return fmt.Errorf("--watch requires --config")
			}
			return watchConfig(cmd, configFile, func() error {
				cfg, err := load()
				if err != nil {
					return err
				}
				return runGenerate(cmd, cfg)
			})
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "YAML config file")
	cmd.Flags().StringVarP(&targetName, "target", "t", "", "language target (overrides config)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (overrides config)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "regenerate when the config file changes")
	return cmd
}

// runGenerate performs one full generation pass: build the module,
// generate every selected target, write the results.
func runGenerate(cmd *cobra.Command, cfg *config.Config) error {
	module, err := buildModule()
	if err != nil {
		return fmt.Errorf("build module: %w", err)
	}

	selected := cfg.SelectedTargets()
	targets := make([]gen.LanguageTarget, 0, len(selected))
	for _, name := range selected {
		target, err := gen.Lookup(name)
		if err != nil {
			return err
		}
		targets = append(targets, target)
	}

	results, err := gen.GenerateAll(cmd.Context(), module, targets...)
	if err != nil {
		return err
	}

	multi := len(targets) > 1
	for _, target := range targets {
		dir := cfg.OutDir
		if multi {
			dir = filepath.Join(cfg.OutDir, target.Name())
		}
		if err := writeFiles(dir, results[target.Name()]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: wrote %d files to %s\n",
			target.Name(), len(results[target.Name()]), dir)
	}
	return nil
}

// writeFiles persists one target's mapping, creating directories as
// needed. Files are written in sorted order so failures are
// reproducible.
func writeFiles(dir string, files map[string]string) error {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create directory for %s: %w", name, err)
		}
		if err := os.WriteFile(path, []byte(files[name]), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

// watchConfig blocks, re-running regenerate whenever the config file
// is rewritten. It watches the directory rather than the file so
// editors that replace the file atomically keep triggering.
func watchConfig(cmd *cobra.Command, configFile string, regenerate func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("file watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(configFile)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	base := filepath.Base(configFile)
	fmt.Fprintf(cmd.OutOrStdout(), "watching %s\n", configFile)

	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := regenerate(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
		}
	}
}
