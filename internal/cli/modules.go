package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/quietchord/uselens/internal/buildgraph"
	"github.com/quietchord/uselens/internal/config"
	"github.com/quietchord/uselens/internal/storage"
)

var importsFlag bool

// modulesCmd represents the modules command
var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List the module topology resolved from the build manifest",
	Long: `Modules resolves the build manifest and lists every compilable module with
its source directory and origin (first-party or third-party checkout).

With --imports, the per-module import edges recorded by the last scan are
shown as well.`,
	RunE: runModules,
}

func init() {
	rootCmd.AddCommand(modulesCmd)
	modulesCmd.Flags().BoolVar(&importsFlag, "imports", false, "Show import edges recorded by the last scan")
}

func runModules(cmd *cobra.Command, args []string) error {
	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, err := config.LoadFromDir(rootDir)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	manifestPath := filepath.Join(rootDir, cfg.Project.ManifestPath)
	if verbose {
		fmt.Fprintln(os.Stderr, "Using build manifest:", manifestPath)
	}

	modules, err := buildgraph.Resolve(manifestPath)
	if err != nil {
		return fmt.Errorf("failed to resolve module topology: %w", err)
	}

	if len(modules) == 0 {
		fmt.Println("No modules found in the build manifest.")
		return nil
	}

	fmt.Printf("%d modules:\n", len(modules))
	for _, mod := range modules {
		origin := "first-party"
		if mod.ThirdParty {
			origin = "third-party"
		}
		fmt.Printf("  %-24s %-12s %s\n", mod.Name, origin, mod.SourcePath)
	}

	if !importsFlag {
		return nil
	}
	return printImports(filepath.Join(rootDir, cfg.Storage.StateDir, "uselens.db"))
}

func printImports(dbPath string) error {
	if _, err := os.Stat(dbPath); err != nil {
		fmt.Println("\nNo recorded scans yet; run \"uselens scan\" to populate the import graph.")
		return nil
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open usage database: %w", err)
	}
	defer db.Close()

	edges, err := storage.NewReader(db).Imports()
	if err != nil {
		return fmt.Errorf("failed to read import graph: %w", err)
	}

	if len(edges) == 0 {
		fmt.Println("\nNo import edges recorded.")
		return nil
	}

	fmt.Printf("\n%d import edges:\n", len(edges))
	for _, e := range edges {
		fmt.Printf("  %s -> %s (%d files)\n", e.From, e.To, e.FileCount)
	}
	return nil
}
