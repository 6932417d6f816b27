package theme

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce is the default debounce interval for theme file events.
const DefaultWatchDebounce = 250 * time.Millisecond

// Watcher reports changes to a theme file. Editors that save atomically
// replace the file, so the containing directory is watched instead.
type Watcher struct {
	watcher   *fsnotify.Watcher
	filePath  string
	debounce  time.Duration
	onChange  func()
	onError   func(error)
	stopCh    chan struct{}
	stoppedCh chan struct{}
	mu        sync.Mutex
	running   bool
	stopped   bool
}

// NewWatcher creates a watcher for filePath. onChange is called from the
// watcher goroutine once per burst of modifications; it must not block.
func NewWatcher(filePath string, debounce time.Duration, onChange func(), onError func(error)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	if err := fw.Add(filepath.Dir(filePath)); err != nil {
		fw.Close()
		return nil, err
	}

	return &Watcher{
		watcher:   fw,
		filePath:  filePath,
		debounce:  debounce,
		onChange:  onChange,
		onError:   onError,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}, nil
}

// Start begins watching in a goroutine.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.running || w.stopped {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.loop()
}

// Stop ends watching and waits for the goroutine to exit. It is safe to call
// more than once, and on a watcher that was never started.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	running := w.running
	w.mu.Unlock()

	if !running {
		w.watcher.Close()
		return
	}
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Watcher) loop() {
	defer close(w.stoppedCh)
	defer w.watcher.Close()

	absPath, _ := filepath.Abs(w.filePath)
	baseName := filepath.Base(w.filePath)

	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			eventAbs, _ := filepath.Abs(event.Name)
			if filepath.Base(event.Name) != baseName && eventAbs != absPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(w.debounce)
			debounceCh = debounceTimer.C

		case <-debounceCh:
			if w.onChange != nil {
				w.onChange()
			}
			debounceTimer = nil
			debounceCh = nil

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}
