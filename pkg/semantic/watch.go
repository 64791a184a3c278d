package semantic

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/agentstation/ckansync/pkg/logging"
)

// Watch marks the table stale whenever path changes on disk, so edits made
// to a table during a long import are picked up by the next lookup. The
// parent directory is watched because editors often replace files instead
// of writing them in place. Watching stops when ctx is done.
func (t *Table) Watch(ctx context.Context, path string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		_ = fsw.Close()
		return err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return err
	}

	logger := logging.FromContext(ctx).With().Str("table", t.name).Str("path", abs).Logger()
	go func() {
		defer func() { _ = fsw.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
					t.MarkStale()
					logger.Info().Str("op", event.Op.String()).Msg("Table changed on disk, reloading on next lookup")
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				logger.Warn().Err(err).Msg("Table watcher error")
			}
		}
	}()
	return nil
}
