// Package engine ties the segment store, the edit session and the playback
// sampler together for one loaded video. All state changes go through the
// Engine's methods and Update, which the host calls from a single event
// loop.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/fakeyudi/tsync/internal/export"
	"github.com/fakeyudi/tsync/internal/player"
	"github.com/fakeyudi/tsync/internal/sampler"
	"github.com/fakeyudi/tsync/internal/timecode"
	"github.com/fakeyudi/tsync/internal/transcript"
	"github.com/fakeyudi/tsync/internal/video"
)

// User-facing messages.
const (
	MsgEmptyURL     = "Please enter a YouTube URL"
	MsgInvalidURL   = "Invalid YouTube URL"
	MsgPlayerFailed = "Error loading video. Please check the URL and try again."
)

// ErrNoVideo is returned by playback operations before a video is loaded.
var ErrNoVideo = errors.New("no video loaded")

// UserMessage maps an engine error to the text shown to the user.
func UserMessage(err error) string {
	var editErr *transcript.EditError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, video.ErrEmptyURL):
		return MsgEmptyURL
	case errors.Is(err, video.ErrInvalidURL):
		return MsgInvalidURL
	case errors.Is(err, sampler.ErrPlayer):
		return MsgPlayerFailed
	case errors.As(err, &editErr):
		return fmt.Sprintf("Edit rejected: %s", editErr.Reason)
	case errors.Is(err, transcript.ErrDuplicateID):
		return "Transcript not loaded: segment ids must be unique"
	}
	return err.Error()
}

// FieldEditedMsg applies a complete field value without going through an
// open cursor.
type FieldEditedMsg struct {
	Index int
	Field transcript.Field
	Value string
}

// TimelineReloadedMsg carries a timeline re-read from its source. A non-nil
// Err keeps the current timeline.
type TimelineReloadedMsg struct {
	Timeline transcript.Timeline
	Err      error
}

// Options configure an Engine.
type Options struct {
	Factory  player.Factory
	Send     func(tea.Msg) // delivers player events to the host loop
	Interval time.Duration // sampler cadence, DefaultInterval when zero
	Logger   *zap.Logger
	// OnTimelineChanged runs after every accepted edit or reload.
	OnTimelineChanged func(transcript.Timeline)
}

// Engine is the single owner of one video's timeline and player session.
type Engine struct {
	opts    Options
	log     *zap.Logger
	store   *transcript.Store
	edit    *transcript.EditSession
	sampler *sampler.Sampler

	videoID string
	url     string
	active  int
	err     error
}

// New returns an engine with an empty timeline and no player.
func New(codec timecode.Codec, opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	store := transcript.NewStore(codec)
	return &Engine{
		opts:   opts,
		log:    log,
		store:  store,
		edit:   transcript.NewEditSession(store),
		active: -1,
	}
}

// LoadVideo resolves rawURL, installs tl and opens a player for the video.
// An invalid URL changes nothing. A rejected timeline keeps the previous
// one and the previous player. A player that fails to open leaves the new
// timeline loaded with playback unavailable.
func (e *Engine) LoadVideo(rawURL string, tl transcript.Timeline) error {
	id, err := video.ExtractID(rawURL)
	if err != nil {
		e.err = err
		return err
	}
	if err := e.store.Load(tl); err != nil {
		e.err = err
		e.log.Warn("timeline rejected", zap.String("video_id", id), zap.Error(err))
		return err
	}

	e.edit.Cancel()
	if e.sampler != nil {
		e.sampler.Destroy()
	}
	e.videoID, e.url = id, rawURL
	e.active = -1
	e.err = nil

	e.sampler = sampler.New(e.opts.Factory, e.opts.Send,
		sampler.WithInterval(e.opts.Interval),
		sampler.WithLogger(e.log),
	)
	if err := e.sampler.Open(id); err != nil {
		e.err = err
		return err
	}
	e.log.Info("video loaded", zap.String("video_id", id), zap.Int("segments", e.store.Len()))
	return nil
}

// ReloadTimeline replaces the timeline of the current video. Any open edit
// is discarded.
func (e *Engine) ReloadTimeline(tl transcript.Timeline) error {
	if err := e.store.Load(tl); err != nil {
		e.err = err
		e.log.Warn("reload rejected", zap.String("video_id", e.videoID), zap.Error(err))
		return err
	}
	e.edit.Cancel()
	e.resolve()
	e.err = nil
	e.log.Info("timeline reloaded", zap.String("video_id", e.videoID), zap.Int("segments", e.store.Len()))
	e.changed()
	return nil
}

// Update applies one message and returns the sampler's follow-up command.
func (e *Engine) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case FieldEditedMsg:
		e.apply(e.store.UpdateField(msg.Index, msg.Field, msg.Value))
		return nil
	case TimelineReloadedMsg:
		if msg.Err != nil {
			e.err = msg.Err
			e.log.Warn("reload failed", zap.Error(msg.Err))
			return nil
		}
		_ = e.ReloadTimeline(msg.Timeline)
		return nil
	case sampler.PlayerErroredMsg:
		if e.sampler != nil {
			cmd = e.sampler.Update(msg)
			if err := e.sampler.Err(); err != nil {
				e.err = err
			}
		}
	default:
		if e.sampler != nil {
			cmd = e.sampler.Update(msg)
		}
	}
	e.resolve()
	return cmd
}

func (e *Engine) resolve() {
	idx, ok := transcript.Resolve(e.Playback().CurrentTime, e.store.All())
	if !ok {
		idx = -1
	}
	e.active = idx
}

// Active returns the index of the segment containing the current time.
func (e *Engine) Active() (int, bool) { return e.active, e.active >= 0 }

// Playback returns the sampler's clock, or the zero state without a player.
func (e *Engine) Playback() sampler.PlaybackState {
	if e.sampler == nil {
		return sampler.PlaybackState{}
	}
	return e.sampler.Playback()
}

// SamplerState returns the player lifecycle state.
func (e *Engine) SamplerState() sampler.State {
	if e.sampler == nil {
		return sampler.Uninitialized
	}
	return e.sampler.State()
}

// Err returns the last error worth showing, or nil.
func (e *Engine) Err() error { return e.err }

// ClearErr dismisses the last error.
func (e *Engine) ClearErr() { e.err = nil }

// VideoID returns the loaded video id.
func (e *Engine) VideoID() string { return e.videoID }

// URL returns the URL the video was loaded from.
func (e *Engine) URL() string { return e.url }

// Codec returns the time codec.
func (e *Engine) Codec() timecode.Codec { return e.store.Codec() }

// Store exposes the segments for reading.
func (e *Engine) Store() *transcript.Store { return e.store }

// Timeline returns a copy of the current timeline.
func (e *Engine) Timeline() transcript.Timeline { return e.store.Timeline() }

// SeekToSegment moves the player to the start of the segment at index.
func (e *Engine) SeekToSegment(index int) error {
	seg, ok := e.store.At(index)
	if !ok {
		return fmt.Errorf("no segment at index %d", index)
	}
	return e.Seek(seg.Start)
}

// Seek moves the player to seconds.
func (e *Engine) Seek(seconds float64) error {
	if e.sampler == nil {
		return ErrNoVideo
	}
	if err := e.sampler.Seek(seconds); err != nil {
		return err
	}
	e.resolve()
	return nil
}

// SeekBy moves the player relative to the current position.
func (e *Engine) SeekBy(delta float64) error {
	if e.sampler == nil {
		return ErrNoVideo
	}
	if err := e.sampler.SeekBy(delta); err != nil {
		return err
	}
	e.resolve()
	return nil
}

// TogglePlay starts or pauses playback when the player supports it.
func (e *Engine) TogglePlay() (bool, error) {
	if e.sampler == nil {
		return false, ErrNoVideo
	}
	return e.sampler.TogglePlay()
}

// Cursor returns the open edit cursor.
func (e *Engine) Cursor() (transcript.Cursor, bool) { return e.edit.Cursor() }

// Draft returns the value typed into the open field.
func (e *Engine) Draft() string { return e.edit.Draft() }

// BeginEdit opens a field for editing.
func (e *Engine) BeginEdit(index int, field transcript.Field) error {
	return e.edit.Begin(index, field)
}

// TypeEdit records the latest typed value.
func (e *Engine) TypeEdit(value string) { e.edit.Type(value) }

// AcceptEdit finalizes the open field.
func (e *Engine) AcceptEdit() error { return e.finalize(e.edit.AcceptKey) }

// BlurEdit finalizes the open field on focus loss.
func (e *Engine) BlurEdit() error { return e.finalize(e.edit.Blur) }

// finalize reports the timeline changed only when the store did. A blur
// arriving after an accepted edit, or an untouched field, saves nothing.
func (e *Engine) finalize(fn func() (bool, error)) error {
	applied, err := fn()
	if err == nil && !applied {
		return nil
	}
	return e.apply(err)
}

// CancelEdit discards the open field.
func (e *Engine) CancelEdit() { e.edit.Cancel() }

// apply records the outcome of a store mutation.
func (e *Engine) apply(err error) error {
	if err != nil {
		e.err = err
		var editErr *transcript.EditError
		if errors.As(err, &editErr) {
			e.log.Info("edit rejected",
				zap.Int("index", editErr.Index),
				zap.String("field", editErr.Field.String()),
				zap.String("reason", editErr.Reason))
		}
		return err
	}
	e.resolve()
	e.changed()
	return nil
}

func (e *Engine) changed() {
	if e.opts.OnTimelineChanged != nil {
		e.opts.OnTimelineChanged(e.store.Timeline())
	}
}

// Export renders the timeline in format f and hands it to sink under the
// format's download name.
func (e *Engine) Export(ctx context.Context, sink export.Sink, f export.Format) (string, error) {
	dest, err := export.Export(ctx, sink, e.store.Timeline(), e.store.Codec(), f)
	if err != nil {
		return "", err
	}
	e.log.Info("transcript exported", zap.String("video_id", e.videoID), zap.String("dest", dest))
	return dest, nil
}

// Destroy releases the player. The engine keeps its timeline.
func (e *Engine) Destroy() {
	if e.sampler != nil {
		e.sampler.Destroy()
	}
}
