// Copyright ©2025 The Gifsmith Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package validate

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gifsmith/gifsmith/internal/profile"
)

// FileDebounce is the default duration we wait for the target file
// contents to have stabilised before re-validating, to work around
// writers that replace the file in multiple steps.
const FileDebounce = 10 * time.Millisecond

// Event is a validation outcome sent by Watch.
type Event struct {
	Report Report
	Err    error
}

// Watch validates the animation at path against the profile and then
// re-validates it whenever the file changes, sending each outcome on
// the returned channel. Events are debounced by the given duration; if
// it is less than zero, FileDebounce is used. The channel is closed
// when ctx is cancelled.
func Watch(ctx context.Context, path string, p profile.Profile, verbose bool, debounce time.Duration, log *slog.Logger) (<-chan Event, error) {
	if debounce < 0 {
		debounce = FileDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory; the target may be renamed into place,
	// which would silently detach a watch on the file itself.
	err = watcher.Add(filepath.Dir(path))
	if err != nil {
		watcher.Close()
		return nil, err
	}

	events := make(chan Event)
	go func() {
		defer close(events)
		defer watcher.Close()

		send := func() bool {
			rep, err := File(path, p, verbose)
			select {
			case events <- Event{Report: rep, Err: err}:
				return true
			case <-ctx.Done():
				return false
			}
		}
		if !send() {
			return
		}

		timer := time.NewTimer(debounce)
		if !timer.Stop() {
			<-timer.C
		}
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if !ev.Op.Has(fsnotify.Create | fsnotify.Write | fsnotify.Rename | fsnotify.Remove) {
					continue
				}
				log.LogAttrs(ctx, slog.LevelDebug, "watch event", slog.String("name", ev.Name), slog.Any("op", ev.Op))
				timer.Reset(debounce)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				select {
				case events <- Event{Err: err}:
				case <-ctx.Done():
					return
				}
			case <-timer.C:
				if !send() {
					return
				}
			}
		}
	}()
	return events, nil
}
