// Package source supplies timelines to the store: the built-in demo
// transcript, transcript files on disk, and live reloads of those files.
package source

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fakeyudi/tsync/internal/export"
	"github.com/fakeyudi/tsync/internal/timecode"
	"github.com/fakeyudi/tsync/internal/transcript"
)

//go:embed demo.json
var demoJSON []byte

// Demo returns the built-in bilingual demo transcript.
func Demo() transcript.Timeline {
	tl, err := (&export.JSONParser{}).Parse(demoJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded demo transcript: %v", err))
	}
	return tl
}

// Option configures how a transcript file is read.
type Option func(*options)

type options struct {
	mode *transcript.Mode
}

// WithMode fixes the payload shape of a plain layout file instead of
// inferring it from the lines. Other formats carry their own shape.
func WithMode(m transcript.Mode) Option {
	return func(o *options) { o.mode = &m }
}

// Load reads a transcript file, choosing the parser by extension (.json,
// .vtt, anything else as the plain download layout). codec is used for the
// plain layout only.
func Load(path string, codec timecode.Codec, opts ...Option) (transcript.Timeline, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return transcript.Timeline{}, fmt.Errorf("reading transcript: %w", err)
	}
	f, err := export.ParseFormat(filepath.Ext(path))
	if err != nil {
		f = export.Plain
	}
	p, err := export.NewParser(f, codec, o.mode)
	if err != nil {
		return transcript.Timeline{}, err
	}
	tl, err := p.Parse(data)
	if err != nil {
		return transcript.Timeline{}, fmt.Errorf("%s: %w", path, err)
	}
	return tl, nil
}

// debounce coalesces the burst of events a single save produces.
const debounce = 50 * time.Millisecond

// Watch calls fn with a freshly loaded timeline every time path is written,
// until ctx is cancelled. Load failures are passed to fn as well; the
// caller decides whether to keep its current timeline.
//
// The parent directory is watched rather than the file so that editors
// which save by rename are still picked up.
func Watch(ctx context.Context, path string, codec timecode.Codec, fn func(transcript.Timeline, error), opts ...Option) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			tl, err := Load(abs, codec, opts...)
			fn(tl, err)

		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// Watcher errors are non-fatal; continue watching.
		}
	}
}
