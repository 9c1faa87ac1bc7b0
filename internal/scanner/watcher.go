package scanner

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher rescans source files as they change. Events are debounced so a
// save burst triggers one rescan.
type Watcher struct {
	scanner  *Scanner
	watcher  *fsnotify.Watcher
	debounce time.Duration

	// OnRescan, when set, runs after every debounced rescan with its stats
	// (export checkpoints hook in here).
	OnRescan func(*Stats)
}

// NewWatcher creates a watcher over the given root directories, added
// recursively.
func NewWatcher(s *Scanner, roots []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		scanner:  s,
		watcher:  fsw,
		debounce: 500 * time.Millisecond,
	}

	for _, root := range roots {
		if err := w.addRecursively(root); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Run blocks, dispatching debounced rescans until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var timer *time.Timer
	var timerC <-chan time.Time
	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.shouldProcess(event) {
				continue
			}

			// New directories join the watch set.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursively(event.Name); err != nil {
						log.Printf("Warning: failed to watch %s: %v", event.Name, err)
					}
					continue
				}
			}

			pending[event.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			files := make([]string, 0, len(pending))
			for f := range pending {
				files = append(files, f)
			}
			pending = make(map[string]struct{})
			timer = nil
			timerC = nil

			w.rescan(ctx, files)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Warning: watch error: %v", err)
		}
	}
}

func (w *Watcher) rescan(ctx context.Context, files []string) {
	stats := &Stats{}
	start := time.Now()
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue // deleted between event and rescan
		}
		w.scanner.aggregator.InvalidateFile(f)
		w.scanner.ScanFile(ctx, f, stats)
	}
	stats.Duration = time.Since(start)

	if stats.FilesScanned > 0 {
		log.Printf("Rescanned %d files (%d matches) in %s",
			stats.FilesScanned, stats.Matches, stats.Duration.Round(time.Millisecond))
	}
	if w.OnRescan != nil {
		w.OnRescan(stats)
	}
}

func (w *Watcher) shouldProcess(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		return event.Op&fsnotify.Create != 0
	}
	return filepath.Ext(event.Name) == SourceExtension
}

func (w *Watcher) addRecursively(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if _, skip := w.scanner.exclusions[d.Name()]; skip {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}
