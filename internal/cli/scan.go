package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/quietchord/uselens/internal/buildgraph"
	"github.com/quietchord/uselens/internal/catalog"
	"github.com/quietchord/uselens/internal/config"
	"github.com/quietchord/uselens/internal/match"
	"github.com/quietchord/uselens/internal/metadata"
	"github.com/quietchord/uselens/internal/oracle"
	"github.com/quietchord/uselens/internal/scanner"
	"github.com/quietchord/uselens/internal/storage"
)

var (
	quietFlag         bool
	watchFlag         bool
	designSystemsFlag string
	excludeFlag       string
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [paths...]",
	Short: "Scan source files and aggregate component usage",
	Long: `Scan walks the given files and directories, matches every declaration and
call expression against the symbol catalog, and aggregates per-symbol usage
records.

Scanned paths must belong to a module from the build manifest. The catalog
is built on first use and cached in .uselens/catalog.json; run
"uselens catalog" to rebuild it after the module surface changes.

Results are written to .uselens/usage.json and .uselens/uselens.db.

Examples:
  # Scan the application sources
  uselens scan Sources/App

  # Tag design-system modules and skip generated code
  uselens scan Sources --design-systems DesignKit,UIFoundation --exclude Generated

  # Keep scanning as files change
  uselens scan Sources --watch
`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
	scanCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch scanned directories and rescan changed files")
	scanCmd.Flags().StringVar(&designSystemsFlag, "design-systems", "", "Comma-separated module names tagged as design systems")
	scanCmd.Flags().StringVar(&excludeFlag, "exclude", "", "Comma-separated directory names to skip while walking")
}

func runScan(cmd *cobra.Command, args []string) error {
	// Set up context with cancellation for Ctrl+C
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupted! Cancelling scan...")
		cancel()
	}()

	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, err := config.LoadFromDir(rootDir)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	stateDir := filepath.Join(rootDir, cfg.Storage.StateDir)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	runner := &oracle.ExecRunner{Dir: rootDir}

	modules, err := resolveModules(ctx, runner, cfg, rootDir)
	if err != nil {
		return err
	}

	cat, err := loadOrBuildCatalog(ctx, runner, cfg, modules, stateDir, false)
	if err != nil {
		return err
	}

	aggregator, err := metadata.New(modules, mergeList(cfg.Scan.DesignSystems, designSystemsFlag))
	if err != nil {
		return fmt.Errorf("failed to create aggregator: %w", err)
	}

	structural := oracle.NewStructuralClient(runner, cfg.Oracle.Binary)
	progress := NewScanProgressReporter(quietFlag)

	s, err := scanner.New(scanner.Config{
		Modules:        modules,
		Exclusions:     mergeList(cfg.Scan.Exclusions, excludeFlag),
		IgnorePatterns: cfg.Scan.IgnorePatterns,
	}, structural, match.New(cat), aggregator, progress)
	if err != nil {
		return fmt.Errorf("failed to create scanner: %w", err)
	}

	db, err := storage.Open(filepath.Join(stateDir, "uselens.db"))
	if err != nil {
		return fmt.Errorf("failed to open usage database: %w", err)
	}
	defer db.Close()

	startedAt := time.Now()
	stats := s.Walk(ctx, args)
	progress.Finish()

	if err := checkpoint(db, stateDir, modules, aggregator, s, stats, startedAt); err != nil {
		return err
	}

	if !quietFlag {
		printScanSummary(stats, aggregator.Len())
	}

	if watchFlag {
		return runWatch(ctx, db, stateDir, modules, aggregator, s, args)
	}
	return nil
}

// runWatch blocks until cancelled, checkpointing after every debounced
// rescan.
func runWatch(ctx context.Context, db *sql.DB, stateDir string, modules []buildgraph.Module, aggregator *metadata.Aggregator, s *scanner.Scanner, roots []string) error {
	dirs, err := watchRoots(roots)
	if err != nil {
		return err
	}

	w, err := scanner.NewWatcher(s, dirs)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	w.OnRescan = func(stats *scanner.Stats) {
		if err := checkpoint(db, stateDir, modules, aggregator, s, stats, time.Now()); err != nil {
			log.Printf("Warning: checkpoint failed: %v", err)
		}
	}

	if !quietFlag {
		log.Println("Watching for changes (Ctrl+C to stop)...")
	}
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("watch mode failed: %w", err)
	}
	if !quietFlag {
		log.Println("Watch mode stopped")
	}
	return nil
}

// checkpoint persists the aggregated state: the JSON export plus a fresh
// database snapshot and a run history row.
func checkpoint(db *sql.DB, stateDir string, modules []buildgraph.Module, aggregator *metadata.Aggregator, s *scanner.Scanner, stats *scanner.Stats, startedAt time.Time) error {
	if err := aggregator.Export(filepath.Join(stateDir, "usage.json")); err != nil {
		return fmt.Errorf("failed to export usage metadata: %w", err)
	}

	w := storage.NewWriter(db)
	if err := w.WriteModules(modules); err != nil {
		return fmt.Errorf("failed to persist modules: %w", err)
	}
	if err := w.WriteRecords(aggregator.Records()); err != nil {
		return fmt.Errorf("failed to persist usage records: %w", err)
	}
	if err := w.WriteImports(s.Imports().Edges()); err != nil {
		return fmt.Errorf("failed to persist import graph: %w", err)
	}
	if err := w.WriteRun(uuid.New().String(), startedAt, stats); err != nil {
		return fmt.Errorf("failed to persist run history: %w", err)
	}
	return nil
}

func printScanSummary(stats *scanner.Stats, components int) {
	fmt.Printf("✓ Scanned %d files in %.2fs\n", stats.FilesScanned, stats.Duration.Seconds())
	fmt.Printf("✓ %d components, %d matches from %d candidates\n", components, stats.Matches, stats.Candidates)
	if stats.FilesFailed > 0 {
		fmt.Printf("  %d files failed (see warnings above)\n", stats.FilesFailed)
	}
	if stats.PathsRejected > 0 {
		fmt.Printf("  %d paths rejected (outside known modules)\n", stats.PathsRejected)
	}
}

// resolveModules derives the module topology from the build manifest. A
// missing manifest triggers one build attempt before giving up; scans still
// proceed without a topology, they just reject every path.
func resolveModules(ctx context.Context, runner oracle.CommandRunner, cfg *config.Config, rootDir string) ([]buildgraph.Module, error) {
	manifestPath := filepath.Join(rootDir, cfg.Project.ManifestPath)

	modules, err := buildgraph.Resolve(manifestPath)
	if err == nil {
		return modules, nil
	}
	if !errors.Is(err, buildgraph.ErrManifestUnavailable) {
		return nil, fmt.Errorf("failed to resolve module topology: %w", err)
	}

	if !quietFlag {
		log.Println("Build manifest missing, triggering a build...")
	}
	timeout := time.Duration(cfg.Project.BuildTimeoutSeconds) * time.Second
	trigger := oracle.NewBuildTrigger(runner, timeout)
	if err := trigger.Trigger(ctx, rootDir); err != nil {
		if errors.Is(err, oracle.ErrBuildTimeout) {
			return nil, fmt.Errorf("build trigger exceeded %s: %w", timeout, err)
		}
		log.Printf("Warning: build trigger failed: %v", err)
	}

	modules, err = buildgraph.Resolve(manifestPath)
	if err != nil {
		log.Printf("Warning: no module topology available, all paths will be rejected: %v", err)
		return nil, nil
	}
	return modules, nil
}

// loadOrBuildCatalog returns the cached catalog unless rebuild is forced or
// the cache is absent.
func loadOrBuildCatalog(ctx context.Context, runner oracle.CommandRunner, cfg *config.Config, modules []buildgraph.Module, stateDir string, rebuild bool) (*catalog.Catalog, error) {
	path := filepath.Join(stateDir, "catalog.json")

	if !rebuild {
		cat, err := catalog.Load(path)
		if err == nil {
			if !quietFlag {
				log.Printf("Loaded catalog: %d symbols across %d modules", cat.Len(), len(cat.Modules()))
			}
			return cat, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("Warning: unreadable catalog cache, rebuilding: %v", err)
		}
	}

	if !quietFlag {
		log.Printf("Building symbol catalog for %d modules...", len(modules))
	}
	completer := oracle.NewCompletionClient(runner, cfg.Oracle.Binary)
	cat := catalog.NewBuilder(completer, modules).Build(ctx)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("catalog build cancelled: %w", err)
	}

	if err := cat.Save(path); err != nil {
		return nil, fmt.Errorf("failed to save catalog: %w", err)
	}
	if !quietFlag {
		fmt.Printf("✓ Catalog ready: %d symbols\n", cat.Len())
	}
	return cat, nil
}

// mergeList appends comma-separated flag values onto configured ones,
// dropping duplicates.
func mergeList(configured []string, flag string) []string {
	out := append([]string(nil), configured...)
	seen := make(map[string]bool, len(out))
	for _, v := range out {
		seen[v] = true
	}
	for _, v := range strings.Split(flag, ",") {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// watchRoots maps scan arguments onto directories fsnotify can watch.
func watchRoots(roots []string) ([]string, error) {
	var dirs []string
	seen := make(map[string]bool)
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("cannot watch %s: %w", root, err)
		}
		dir := root
		if !info.IsDir() {
			dir = filepath.Dir(root)
		}
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs, nil
}
