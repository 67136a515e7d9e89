package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jward/pyscope"
	"github.com/jward/pyscope/internal/config"
)

var (
	flagDB      string
	flagFormat  string
	flagColor   string
	flagVerbose bool
)

var (
	// cfg is the pyscope.toml nearest the working directory, or defaults.
	cfg    = config.Default()
	logger = slog.New(slog.DiscardHandler)
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "pyscope",
	Short:         "Scope-aware semantic indexing for Python",
	Long:          "pyscope builds the scope tree and symbol tables of Python modules, stores them in SQLite, and answers queries over them.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: [index].database, or .pyscope/index.db at the repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "", "output format: json|text (default: [output].format)")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "", "colored output: auto|always|never (default: [output].color)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging on stderr")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(scriptCmd)
}

// setup loads the configuration and applies it under the command-line flags.
func setup() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting cwd: %w", err)
	}
	loaded, err := config.Discover(cwd)
	if err != nil {
		return err
	}
	cfg = loaded

	if flagFormat == "" {
		flagFormat = cfg.Output.Format
	}
	if flagColor == "" {
		flagColor = cfg.Output.Color
	}
	if err := validateFormat(flagFormat); err != nil {
		return err
	}
	if err := validateColor(flagColor); err != nil {
		return err
	}

	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	if cfg.Path != "" {
		logger.Debug("loaded config", "path", cfg.Path)
	}
	return nil
}

var (
	flagForce bool
	flagJobs  int
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index the Python files of a directory",
	Long:  "Discovers Python files (honoring .gitignore and [index].exclude), builds their semantic indexes, and writes them to the SQLite database. Unchanged files are skipped.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "rebuild every file even when unchanged")
	indexCmd.Flags().IntVarP(&flagJobs, "jobs", "j", 0, "files parsed concurrently (default: [index].jobs, 0 = all CPUs)")
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}

	jobs := cfg.Index.Jobs
	if cmd.Flags().Changed("jobs") {
		jobs = flagJobs
	}

	engine, dbPath, err := openEngine(targetDir,
		pyscope.WithJobs(jobs),
		pyscope.WithForce(flagForce),
	)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.IndexDirectory(context.Background(), targetDir); err != nil {
		return fmt.Errorf("indexing: %w", err)
	}

	affected, err := engine.Affected()
	if err != nil {
		return err
	}
	for _, path := range affected {
		logger.Debug("affected file", "path", path)
	}

	fmt.Fprintf(os.Stderr, "Indexed %s in %s\n", targetDir, time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)
	return nil
}

// openEngine creates the database directory if needed and opens an Engine
// configured from pyscope.toml.
func openEngine(startDir string, opts ...pyscope.Option) (*pyscope.Engine, string, error) {
	dbPath, err := resolveDBPath(startDir)
	if err != nil {
		return nil, "", err
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, "", fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
	}
	base := []pyscope.Option{
		pyscope.WithLogger(logger),
		pyscope.WithMaxFileSize(cfg.Index.MaxFileSize),
		pyscope.WithExcludes(cfg.Index.Exclude...),
	}
	engine, err := pyscope.New(dbPath, append(base, opts...)...)
	if err != nil {
		return nil, "", fmt.Errorf("creating engine: %w", err)
	}
	return engine, dbPath, nil
}

// resolveTargetDir returns the absolute path of the directory to index.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path. --db wins and is relative to the
// working directory. Otherwise a loaded pyscope.toml places it relative to
// the config file, and the default places it at the repo root above
// startDir.
func resolveDBPath(startDir string) (string, error) {
	switch {
	case flagDB != "":
		abs, err := filepath.Abs(flagDB)
		if err != nil {
			return "", fmt.Errorf("resolving --db %q: %w", flagDB, err)
		}
		return abs, nil
	case cfg.Path != "":
		return cfg.DatabasePath(), nil
	case filepath.IsAbs(cfg.Index.Database):
		return cfg.Index.Database, nil
	}
	return filepath.Join(findRepoRoot(startDir), cfg.Index.Database), nil
}

// useColor decides whether output to f is styled.
func useColor(mode string, f *os.File) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
