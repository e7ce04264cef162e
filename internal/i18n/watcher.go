package i18n

import (
	"context"
	"log/slog"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the message catalog whenever a YAML file in its directory
// changes, so toast copy can be edited without a restart.
type Watcher struct {
	catalog *Catalog
	log     *slog.Logger
}

// NewWatcher constructs a watcher for the given catalog.
func NewWatcher(catalog *Catalog, log *slog.Logger) *Watcher {
	if log == nil {
		log = slog.Default()
	}

	return &Watcher{
		catalog: catalog,
		log:     log,
	}
}

// Run watches the catalog directory until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if w.catalog == nil {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(w.catalog.dir); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}

			if !isCatalogChange(event) {
				continue
			}

			if err := w.catalog.Reload(); err != nil {
				w.log.Error("message catalog reload failed", slog.String("file", event.Name), slog.Any("error", err))
				continue
			}

			w.log.Info("message catalog reloaded", slog.String("file", event.Name))
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}

			w.log.Error("message catalog watch error", slog.Any("error", err))
		}
	}
}

func isCatalogChange(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}

	name := strings.ToLower(event.Name)
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
