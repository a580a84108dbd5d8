package board

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	DefaultDebounceWindow = 100 * time.Millisecond
	DefaultPollInterval   = 500 * time.Millisecond
)

// Logger matches the stdlib log.Logger surface the engine needs.
type Logger interface {
	Printf(format string, args ...any)
}

type WatcherOptions struct {
	// Debounce is the quiet period that closes a coalescing window.
	Debounce time.Duration
	// PollInterval drives the mtime/size poll tick that backs up
	// fsnotify. Negative disables polling.
	PollInterval time.Duration
	Logger       Logger
}

// Watcher observes the board file and emits at most one external-change
// notification per logical external edit, absorbing every event caused
// by the engine's own saves.
//
// Raw events arrive from fsnotify on the parent directory and from a
// stat poll tick; both feed one coalescing pipeline. The first raw event
// of a window consumes the self-write flag; if it was armed the whole
// window is discarded without re-checking later events, since they
// belong to the same physical write. Each raw event re-arms the window,
// so a burst coalesces into a single notification after the debounce
// window elapses.
type Watcher struct {
	path     string
	flag     *SelfWriteFlag
	debounce time.Duration
	poll     time.Duration
	logger   Logger

	raw     chan struct{}
	changes chan struct{}

	baselineMu sync.Mutex
	baseline   fileStat
}

type fileStat struct {
	exists  bool
	size    int64
	modNano int64
}

func NewWatcher(path string, flag *SelfWriteFlag, opts WatcherOptions) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: board path is required", ErrInvalidInput)
	}
	if flag == nil {
		return nil, fmt.Errorf("%w: self-write flag is required", ErrInvalidInput)
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounceWindow
	}
	poll := opts.PollInterval
	if poll == 0 {
		poll = DefaultPollInterval
	}
	return &Watcher{
		path:     filepath.Clean(path),
		flag:     flag,
		debounce: debounce,
		poll:     poll,
		logger:   opts.Logger,
		raw:      make(chan struct{}, 64),
		changes:  make(chan struct{}, 1),
	}, nil
}

// Changes delivers one value per detected external edit. The channel is
// buffered with depth one: a pending, unconsumed notification already
// guarantees the consumer will reload the latest on-disk state.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Start launches the observation goroutines. When fsnotify cannot watch
// the parent directory the watcher falls back to polling alone; with
// polling disabled too it returns an error matching ErrWatchSetup and
// the application continues via manual save/load.
func (w *Watcher) Start(ctx context.Context) error {
	w.setBaseline(statFile(w.path))

	fsWatcher, err := fsnotify.NewWatcher()
	if err == nil {
		if addErr := fsWatcher.Add(filepath.Dir(w.path)); addErr != nil {
			_ = fsWatcher.Close()
			fsWatcher = nil
			err = addErr
		}
	}
	if err != nil {
		if w.poll <= 0 {
			return fmt.Errorf("%w: %v", ErrWatchSetup, err)
		}
		w.logf("fsnotify unavailable (%v); polling %s every %s", err, w.path, w.poll)
	}

	go w.run(ctx)
	if fsWatcher != nil {
		go w.notifyLoop(ctx, fsWatcher)
	}
	if w.poll > 0 {
		go w.pollLoop(ctx)
	}
	return nil
}

// run is the coalescing pipeline. Tests drive it directly by sending to
// w.raw.
func (w *Watcher) run(ctx context.Context) {
	var (
		timer      *time.Timer
		timerC     <-chan time.Time
		suppressed bool
		windowOpen bool
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.raw:
			if !windowOpen {
				windowOpen = true
				suppressed = w.flag.Consume()
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			timerC = timer.C
		case <-timerC:
			timer = nil
			timerC = nil
			if windowOpen && !suppressed {
				select {
				case w.changes <- struct{}{}:
				default:
				}
			}
			windowOpen = false
			suppressed = false
			// Re-baseline so the poll tick does not re-report the
			// write this window just absorbed.
			w.setBaseline(statFile(w.path))
		}
	}
}

func (w *Watcher) notifyLoop(ctx context.Context, fsWatcher *fsnotify.Watcher) {
	defer fsWatcher.Close()
	base := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			w.offerRaw()
		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return
			}
			w.logf("watch error: %v", err)
		}
	}
}

func (w *Watcher) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			current := statFile(w.path)
			if current == w.getBaseline() {
				continue
			}
			// Advance the baseline now so an unchanged file stops
			// producing ticks; a tick per change, not per interval,
			// keeps the debounce window able to close.
			w.setBaseline(current)
			w.offerRaw()
		}
	}
}

func (w *Watcher) setBaseline(stat fileStat) {
	w.baselineMu.Lock()
	w.baseline = stat
	w.baselineMu.Unlock()
}

func (w *Watcher) getBaseline() fileStat {
	w.baselineMu.Lock()
	defer w.baselineMu.Unlock()
	return w.baseline
}

// offerRaw never blocks: a full buffer means the pipeline already has a
// window's worth of pending events.
func (w *Watcher) offerRaw() {
	select {
	case w.raw <- struct{}{}:
	default:
	}
}

func (w *Watcher) logf(format string, args ...any) {
	if w.logger == nil {
		return
	}
	w.logger.Printf(format, args...)
}

func statFile(path string) fileStat {
	info, err := os.Stat(path)
	if err != nil {
		return fileStat{}
	}
	return fileStat{exists: true, size: info.Size(), modNano: info.ModTime().UnixNano()}
}
