package contentwatch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/adeneu/portfolio-web/internal/blog"
	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"
)

const debounceDuration = 500 * time.Millisecond

type GroupLoader interface {
	LoadAllGroups(ctx context.Context) (*blog.Groups, error)
}

type Options struct {
	// Interval between two rescans of the content source.
	Interval time.Duration
	// Dir, when set, is watched recursively for file changes.
	Dir string
	// OnChange runs after content changed. newKeys lists the translation
	// groups first seen by the rescan; it is nil for file notifications and
	// for rescans that only found edits or removals.
	OnChange func(newKeys []string)
	Logger   *slog.Logger
}

// Watcher notices content changes, either by rescanning the source on an
// interval or through file notifications for local content.
type Watcher struct {
	s         gocron.Scheduler
	fsWatcher *fsnotify.Watcher
	loader    GroupLoader
	onChange  func([]string)
	logger    *slog.Logger

	knownMutex sync.Mutex
	known      map[string]uint64
	debounce   *time.Timer
}

func New(ctx context.Context, loader GroupLoader, opts Options) (*Watcher, error) {
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("rescan interval must be positive, got %s", opts.Interval)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.OnChange == nil {
		opts.OnChange = func([]string) {}
	}

	groups, err := loader.LoadAllGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan existing content: %w", err)
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create new scheduler: %w", err)
	}

	w := &Watcher{
		s:        s,
		loader:   loader,
		onChange: opts.OnChange,
		logger:   opts.Logger,
		known:    fingerprints(groups),
	}

	if _, err = w.s.NewJob(gocron.DurationJob(opts.Interval), gocron.NewTask(func() {
		if _, err := w.Scan(context.Background()); err != nil {
			w.logger.Error("failed to execute content rescan job", slog.String("error", err.Error()))
		}
	})); err != nil {
		_ = w.s.Shutdown()
		return nil, fmt.Errorf("failed to schedule content rescan: %w", err)
	}

	if opts.Dir != "" {
		if err = w.watchDir(opts.Dir); err != nil {
			_ = w.s.Shutdown()
			return nil, err
		}
	}

	w.s.Start()
	return w, nil
}

// fingerprints hashes every translation group by the paths, metadata and
// bodies of its posts.
func fingerprints(groups *blog.Groups) map[string]uint64 {
	sums := make(map[string]uint64, groups.Len())
	for _, group := range groups.All() {
		locales := make([]string, 0, len(group.Posts))
		for locale := range group.Posts {
			locales = append(locales, locale)
		}
		slices.Sort(locales)

		d := xxhash.New()
		for _, locale := range locales {
			post := group.Posts[locale]
			_, _ = fmt.Fprintf(d, "%s\x00%s\x00%+v\x00%s\x00", locale, post.Path, post.Metadata, post.Content)
		}
		sums[group.Key] = d.Sum64()
	}
	return sums
}

// Scan reloads the content groups and reports the keys not seen before.
// OnChange runs when groups appeared, disappeared or were edited.
func (w *Watcher) Scan(ctx context.Context) ([]string, error) {
	groups, err := w.loader.LoadAllGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to rescan content: %w", err)
	}
	current := fingerprints(groups)

	w.knownMutex.Lock()
	newKeys := make([]string, 0)
	edited := 0
	for key, sum := range current {
		previous, ok := w.known[key]
		switch {
		case !ok:
			newKeys = append(newKeys, key)
		case previous != sum:
			edited++
		}
	}
	removed := len(w.known) - (len(current) - len(newKeys))
	w.known = current
	w.knownMutex.Unlock()

	if len(newKeys) == 0 && removed == 0 && edited == 0 {
		return newKeys, nil
	}

	slices.Sort(newKeys)
	w.logger.Info("content changed",
		slog.Any("new_groups", newKeys),
		slog.Int("edited_groups", edited),
		slog.Int("removed_groups", removed),
	)
	w.onChange(newKeys)
	return newKeys, nil
}

func (w *Watcher) watchDir(root string) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.fsWatcher = fsWatcher

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsWatcher.Add(path)
		}
		return nil
	})
	if err != nil {
		fsWatcher.Close()
		return fmt.Errorf("failed to watch content directory '%s': %w", root, err)
	}

	go w.watch()
	return nil
}

func (w *Watcher) watch() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("content file changed", slog.String("path", event.Name), slog.String("op", event.Op.String()))

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.fsWatcher.Add(event.Name); err != nil {
						w.logger.Warn("failed to watch new directory", slog.String("path", event.Name), slog.String("error", err.Error()))
					}
				}
			}

			w.knownMutex.Lock()
			if w.debounce != nil {
				w.debounce.Stop()
			}
			w.debounce = time.AfterFunc(debounceDuration, func() { w.onChange(nil) })
			w.knownMutex.Unlock()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("content watcher error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) Close() error {
	allErrors := make([]error, 0)
	if err := w.s.Shutdown(); err != nil {
		allErrors = append(allErrors, fmt.Errorf("fail to shutdown content rescan scheduler: %w", err))
	}
	if w.fsWatcher != nil {
		if err := w.fsWatcher.Close(); err != nil {
			allErrors = append(allErrors, fmt.Errorf("fail to close file watcher: %w", err))
		}
	}
	w.knownMutex.Lock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.knownMutex.Unlock()
	return errors.Join(allErrors...)
}
