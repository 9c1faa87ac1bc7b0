package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quietchord/uselens/internal/config"
	"github.com/quietchord/uselens/internal/oracle"
)

// catalogCmd represents the catalog command
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Rebuild the symbol catalog",
	Long: `Catalog queries the completion oracle once per module and rebuilds the
symbol catalog cached in .uselens/catalog.json.

Scans reuse the cache, so rebuild after adding modules or changing a
module's public surface.`,
	RunE: runCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable non-error output")
}

func runCatalog(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupted! Cancelling catalog build...")
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
	if len(modules) == 0 {
		return fmt.Errorf("no modules resolved; cannot build a catalog without a build manifest")
	}

	_, err = loadOrBuildCatalog(ctx, runner, cfg, modules, stateDir, true)
	return err
}
