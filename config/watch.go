package config

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch observes the config file and invokes onChange with a freshly
// loaded config every time it is written. Load errors are logged and the
// previous config stays in effect. The returned function stops the
// watcher.
func Watch(logger *slog.Logger, path string, onChange func(*AppConfig)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory: editors often replace the file on save, which
	// would otherwise drop the watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				logger.Info("config file changed, reloading", slog.String("path", path))
				cnfg, err := Load(path)
				if err != nil {
					logger.Error("config reload failed, keeping previous config", slog.Any("error", err))
					continue
				}
				onChange(cnfg)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", slog.Any("error", err))
			}
		}
	}()

	return func() { watcher.Close() }, nil
}
