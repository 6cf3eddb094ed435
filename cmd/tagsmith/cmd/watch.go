package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	fswatch "github.com/corey/tagsmith/internal/adapters/fsnotify"
	"github.com/corey/tagsmith/internal/app"
	"github.com/corey/tagsmith/internal/config"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate the tag table on file changes",
	Long: `Runs an initial generation, then watches the workspace and rebuilds
the tag table whenever source files change. Stop with Ctrl-C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root := workspaceRoot()
		cfg, err := config.Load(root)
		if err != nil {
			return err
		}
		sopts, err := sessionOptions(cfg, cmd)
		if err != nil {
			return err
		}
		if sopts.Path == "" || sopts.Path == "-" {
			return fmt.Errorf("watch needs a tag file target, not stdout")
		}

		incremental := genFlags.incremental || cfg.Watch.Incremental
		gen, cleanup, err := newGenerator(root, incremental)
		if err != nil {
			return err
		}
		defer cleanup()

		rebuild := func() {
			result, err := gen.Generate(app.GenerateOptions{
				Root:        root,
				Incremental: incremental,
			}, sopts)
			if err != nil {
				fmt.Fprintf(os.Stderr, "tagsmith: rebuild failed: %v\n", err)
				return
			}
			fmt.Printf("%d tags from %d files -> %s\n", result.Tags, result.Files, sopts.Path)
		}
		rebuild()

		coalescer := app.NewChangeCoalescer(func(changed []string) {
			rebuild()
		})
		defer coalescer.Stop()

		watcher, err := fswatch.NewWatcher()
		if err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
		defer watcher.Stop()
		if err := watcher.Watch(root, coalescer.OnChange); err != nil {
			return fmt.Errorf("watch %s: %w", root, err)
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		return nil
	},
}

func init() {
	// Watch reuses gen's output flags; its own knobs live in .tagsmith.toml.
	watchCmd.Flags().AddFlagSet(genCmd.Flags())
}
