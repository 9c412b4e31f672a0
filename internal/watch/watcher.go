package watch

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Debounce is how long the folder must stay quiet before a change is reported.
const Debounce = 250 * time.Millisecond

// Watcher monitors a LabelMe folder tree and signals once per burst of
// annotation file changes.
type Watcher struct {
	Dir     string
	Changes <-chan struct{} // Read-only external channel

	changes chan struct{}
	done    chan struct{}
	ignore  []string
	watcher *fsnotify.Watcher
}

// New creates a watcher for dir and its subdirectories. Paths under any of the
// ignore directories (typically the export dir) never trigger a change.
func New(dir string, ignore ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	var ignored []string
	for _, p := range ignore {
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, err
		}
		ignored = append(ignored, abs)
	}

	ch := make(chan struct{}, 1)
	return &Watcher{
		Dir:     dir,
		Changes: ch,
		changes: ch,
		done:    make(chan struct{}),
		ignore:  ignored,
		watcher: fw,
	}, nil
}

// Start registers every directory under Dir and begins watching.
func (w *Watcher) Start() error {
	err := filepath.WalkDir(w.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if w.ignored(path) {
				return filepath.SkipDir
			}
			return w.watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		w.watcher.Close()
		return err
	}

	go w.loop()
	return nil
}

// Stop closes the watcher and the Changes channel.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done // Wait for loop to exit
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	var pending bool
	var last time.Time
	ticker := time.NewTicker(Debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.ignored(event.Name) {
				continue
			}

			if event.Has(fsnotify.Create) && isDir(event.Name) {
				if err := w.watcher.Add(event.Name); err != nil {
					slog.Warn("Unable to watch new directory", "dir", event.Name, "err", err)
				}
				continue
			}

			if !isAnnotationFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				pending = true
				last = time.Now()
			}

		case <-ticker.C:
			if pending && time.Since(last) >= Debounce {
				pending = false
				w.emit()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("File watcher error", "err", err)
		}
	}
}

// emit signals a change without blocking; one queued signal already covers
// any later ones.
func (w *Watcher) emit() {
	select {
	case w.changes <- struct{}{}:
	default:
	}
}

func (w *Watcher) ignored(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, dir := range w.ignore {
		if abs == dir || strings.HasPrefix(abs, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func isAnnotationFile(name string) bool {
	return strings.Contains(filepath.Base(name), ".json")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
