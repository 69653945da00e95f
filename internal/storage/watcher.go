// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce coalesces the burst of WAL/SHM writes a single
// transaction produces.
const DefaultWatchDebounce = 150 * time.Millisecond

// Watcher reports changes made to the state database, including those made
// by other scout processes (e.g. `scout logout` in another terminal).
type Watcher struct {
	watcher  *fsnotify.Watcher
	base     string
	debounce time.Duration

	mu      sync.Mutex
	pending bool
	last    time.Time

	events chan struct{}
	errs   chan error
	done   chan struct{}
}

// NewWatcher watches the directory holding statePath. The directory is
// watched instead of the file because SQLite writes go to sibling -wal and
// -shm files first.
func NewWatcher(statePath string, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(statePath)); err != nil {
		fw.Close()
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	return &Watcher{
		watcher:  fw,
		base:     filepath.Base(statePath),
		debounce: debounce,
		events:   make(chan struct{}, 1),
		errs:     make(chan error, 1),
		done:     make(chan struct{}),
	}, nil
}

// Changes delivers one signal per debounced burst of writes.
func (w *Watcher) Changes() <-chan struct{} {
	return w.events
}

// Errors delivers watcher errors. Errors are dropped if nobody reads them.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Run processes events until ctx is cancelled or Close is called.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.debounce / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasPrefix(filepath.Base(event.Name), w.base) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			w.pending = true
			w.last = time.Now()
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}

		case <-ticker.C:
			w.mu.Lock()
			fire := w.pending && time.Since(w.last) >= w.debounce
			if fire {
				w.pending = false
			}
			w.mu.Unlock()
			if fire {
				select {
				case w.events <- struct{}{}:
				default:
				}
			}
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	select {
	case <-w.done:
		return nil
	default:
		close(w.done)
	}
	return w.watcher.Close()
}
