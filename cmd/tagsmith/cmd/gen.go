package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corey/tagsmith/internal/adapters/bbolt"
	"github.com/corey/tagsmith/internal/adapters/source"
	"github.com/corey/tagsmith/internal/adapters/treesitter"
	"github.com/corey/tagsmith/internal/app"
	"github.com/corey/tagsmith/internal/config"
	"github.com/corey/tagsmith/internal/domain/tagfile"
)

var genFlags struct {
	output       string
	etags        bool
	xref         bool
	xrefFormat   string
	fileFormat   int
	appendMode   bool
	sortOrder    string
	backward     bool
	lineNumbers  bool
	patternLimit int
	fileTags     bool
	incremental  bool
	etagsInclude []string
	enableFields []string
	disableFields []string
}

var genCmd = &cobra.Command{
	Use:   "gen [files...]",
	Short: "Generate a tag table",
	Long: `Scans the given files (or the whole workspace when none are given)
and writes a tag table. Defaults come from .tagsmith.toml at the root.`,
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

		gen, cleanup, err := newGenerator(root, genFlags.incremental)
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := gen.Generate(app.GenerateOptions{
			Root:        root,
			Paths:       args,
			FileTags:    genFlags.fileTags,
			Incremental: genFlags.incremental,
		}, sopts)
		if err != nil {
			return fmt.Errorf("generate: %w", err)
		}

		if sopts.Path != "" && sopts.Path != "-" {
			fmt.Printf("%d tags from %d files -> %s", result.Tags, result.Files, sopts.Path)
			if result.Skipped > 0 {
				fmt.Printf(" (%d unchanged)", result.Skipped)
			}
			fmt.Println()
		}
		return nil
	},
}

// newGenerator wires the scanner, line reader, and (optionally) the state
// store. cleanup releases whatever was opened.
func newGenerator(root string, withStore bool) (*app.Generator, func(), error) {
	scanner := treesitter.NewScanner()
	scanner.SetGrammarPaths(treesitter.DefaultGrammarPaths(root))
	reader := source.NewReader()

	gen := &app.Generator{Scanner: scanner, Reader: reader}
	cleanup := func() { reader.Close() }

	if withStore {
		paths := app.NewPaths(root)
		if err := paths.EnsureDirs(); err != nil {
			return nil, nil, fmt.Errorf("prepare workspace dir: %w", err)
		}
		store, err := bbolt.NewStore(paths.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("open state store: %w", err)
		}
		gen.Store = store
		cleanup = func() {
			reader.Close()
			store.Close()
		}
	}
	return gen, cleanup, nil
}

// sessionOptions merges config-file defaults with command-line flags.
func sessionOptions(cfg *config.Config, cmd *cobra.Command) (tagfile.Options, error) {
	opts := tagfile.Options{
		Path:               cfg.Output.File,
		FileFormat:         cfg.Output.FileFormat,
		PatternLengthLimit: cfg.Output.PatternLengthLimit,
		OutputEncoding:     cfg.Output.Encoding,
	}

	format := cfg.Output.Format
	if genFlags.etags {
		format = "etags"
	} else if genFlags.xref {
		format = "xref"
	}
	switch format {
	case "", "ctags":
		opts.Format = tagfile.OutputCtags
	case "etags":
		opts.Format = tagfile.OutputEtags
		if opts.Path == "tags" || opts.Path == "" {
			opts.Path = "TAGS"
		}
	case "xref":
		opts.Format = tagfile.OutputXref
		opts.Path = "-"
	default:
		return opts, fmt.Errorf("unknown output format %q", format)
	}

	sortOrder := cfg.Output.Sort
	if cmd.Flags().Changed("sort") {
		sortOrder = genFlags.sortOrder
	}
	switch sortOrder {
	case "no", "0":
		opts.Sort = tagfile.Unsorted
	case "", "yes", "1":
		opts.Sort = tagfile.Sorted
	case "foldcase", "2":
		opts.Sort = tagfile.FoldSorted
	default:
		return opts, fmt.Errorf("unknown sort order %q", sortOrder)
	}
	if opts.Format == tagfile.OutputEtags {
		// Etags sections are positional; -e implies unsorted.
		opts.Sort = tagfile.Unsorted
	}

	if cmd.Flags().Changed("output") {
		opts.Path = genFlags.output
	}
	if cmd.Flags().Changed("format") {
		opts.FileFormat = genFlags.fileFormat
	}
	if cmd.Flags().Changed("pattern-length-limit") {
		opts.PatternLengthLimit = genFlags.patternLimit
	}
	if cfg.Output.Excmd == "number" || genFlags.lineNumbers {
		opts.LineNumbers = true
	}
	opts.Append = genFlags.appendMode
	opts.Backward = genFlags.backward
	opts.XrefFormat = genFlags.xrefFormat
	opts.EtagsIncludes = genFlags.etagsInclude
	opts.EnableFields = append(append([]string{}, cfg.Fields.Enable...), genFlags.enableFields...)
	opts.DisableFields = append(append([]string{}, cfg.Fields.Disable...), genFlags.disableFields...)
	return opts, nil
}

func init() {
	f := genCmd.Flags()
	f.StringVarP(&genFlags.output, "output", "f", "", "write tags to this file ('-' for stdout)")
	f.BoolVarP(&genFlags.etags, "etags", "e", false, "write etags (Emacs) format")
	f.BoolVarP(&genFlags.xref, "xref", "x", false, "write a human-readable cross reference")
	f.StringVar(&genFlags.xrefFormat, "xref-format", "", "custom xref layout (e.g. '%-16N %4n %C')")
	f.IntVar(&genFlags.fileFormat, "format", 2, "tag file format: 1 (plain) or 2 (extended)")
	f.BoolVarP(&genFlags.appendMode, "append", "a", false, "append to an existing tag file")
	f.StringVar(&genFlags.sortOrder, "sort", "yes", "sort order: no, yes, or foldcase")
	f.BoolVarP(&genFlags.backward, "backward", "B", false, "use backward (?) search patterns")
	f.BoolVarP(&genFlags.lineNumbers, "line-numbers", "n", false, "address tags by line number instead of pattern")
	f.IntVar(&genFlags.patternLimit, "pattern-length-limit", tagfile.DefaultPatternLengthLimit, "truncate search patterns to this many bytes")
	f.BoolVar(&genFlags.fileTags, "file-tags", false, "also tag each input file itself")
	f.BoolVar(&genFlags.incremental, "incremental", false, "skip files unchanged since the last run")
	f.StringSliceVar(&genFlags.etagsInclude, "etags-include", nil, "tag tables to reference from etags output")
	f.StringSliceVar(&genFlags.enableFields, "enable-field", nil, "extension fields to switch on (by name)")
	f.StringSliceVar(&genFlags.disableFields, "disable-field", nil, "extension fields to switch off (by name)")
}
