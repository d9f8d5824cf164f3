// Package sampler keeps a playback clock in step with an external player by
// polling it at a fixed cadence while it is playing.
//
// A Sampler is driven by messages: the player's lifecycle hooks and the
// poll timer both arrive as tea.Msg values and are applied by Update on the
// host's single event loop. Every message carries the id of the
// PlayerSession that produced it, so anything emitted by a destroyed or
// replaced session is dropped.
package sampler

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fakeyudi/tsync/internal/player"
)

// DefaultInterval is the poll cadence while sampling.
const DefaultInterval = 100 * time.Millisecond

var (
	// ErrPlayer is matched by every *PlayerError.
	ErrPlayer = errors.New("player error")
	// ErrNotOpen is returned by player operations before Open or after Destroy.
	ErrNotOpen = errors.New("no player session")
	// ErrAlreadyOpen is returned by Open on a sampler that has left Uninitialized.
	ErrAlreadyOpen = errors.New("sampler already opened")
)

// PlayerError reports a construction or playback failure.
type PlayerError struct {
	VideoID string
	Err     error
}

func (e *PlayerError) Error() string {
	return fmt.Sprintf("player error for video %s: %v", e.VideoID, e.Err)
}

func (e *PlayerError) Is(target error) bool { return target == ErrPlayer }

func (e *PlayerError) Unwrap() error { return e.Err }

// State is the sampler's lifecycle state.
type State int

const (
	Uninitialized State = iota
	Ready
	Sampling
	Destroyed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Sampling:
		return "sampling"
	case Destroyed:
		return "destroyed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// PlaybackState is the clock value exposed to the resolver and the UI.
type PlaybackState struct {
	CurrentTime float64
	IsSampling  bool
	Duration    float64 // 0 until the player reports ready
}

// TickMsg is one poll of the player clock.
type TickMsg struct {
	Session string
	Gen     uint64
}

// PlayerReadyMsg is delivered when the player finished loading.
type PlayerReadyMsg struct {
	Session  string
	Duration float64
}

// PlayerStateChangedMsg is delivered on every reported playback state.
type PlayerStateChangedMsg struct {
	Session string
	State   player.State
}

// PlayerErroredMsg is delivered when the player reports a failure.
type PlayerErroredMsg struct {
	Session string
	Err     error
}

// Session is the single-owner resource tying a constructed player to the
// sampler. Its liveness flag is read from timer goroutines, so it is atomic.
type Session struct {
	ID      string
	VideoID string
	player  player.Player
	alive   atomic.Bool
}

// Alive reports whether the session has not been destroyed.
func (s *Session) Alive() bool { return s.alive.Load() }

// Sampler polls one player session. It is single-use: once destroyed, a new
// video needs a new Sampler.
type Sampler struct {
	factory  player.Factory
	send     func(tea.Msg)
	interval time.Duration
	log      *zap.Logger

	state    State
	sess     *Session
	gen      uint64
	playback PlaybackState
	err      error
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithInterval overrides DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(s *Sampler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLogger sets the logger; the default discards.
func WithLogger(l *zap.Logger) Option {
	return func(s *Sampler) {
		if l != nil {
			s.log = l
		}
	}
}

// New returns an Uninitialized sampler. send delivers player events back to
// the host loop (for a Bubble Tea program, Program.Send) and must be safe to
// call from any goroutine.
func New(factory player.Factory, send func(tea.Msg), opts ...Option) *Sampler {
	s := &Sampler{
		factory:  factory,
		send:     send,
		interval: DefaultInterval,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the lifecycle state.
func (s *Sampler) State() State { return s.state }

// Playback returns the latest clock sample.
func (s *Sampler) Playback() PlaybackState { return s.playback }

// Err returns the last player error, or nil.
func (s *Sampler) Err() error { return s.err }

// Open constructs a player for videoID. On success the sampler is Ready. On
// failure it records a *PlayerError and stays Uninitialized.
func (s *Sampler) Open(videoID string) error {
	if s.state != Uninitialized {
		return ErrAlreadyOpen
	}

	sess := &Session{ID: uuid.NewString(), VideoID: videoID}
	sess.alive.Store(true)

	events := player.Events{
		OnReady: func(d float64) {
			s.deliver(sess, PlayerReadyMsg{Session: sess.ID, Duration: d})
		},
		OnStateChange: func(st player.State) {
			s.deliver(sess, PlayerStateChangedMsg{Session: sess.ID, State: st})
		},
		OnError: func(err error) {
			s.deliver(sess, PlayerErroredMsg{Session: sess.ID, Err: err})
		},
	}

	if s.factory == nil {
		s.err = &PlayerError{VideoID: videoID, Err: errors.New("no player available")}
		return s.err
	}
	p, err := s.factory.Open(videoID, events)
	if err != nil {
		sess.alive.Store(false)
		s.err = &PlayerError{VideoID: videoID, Err: err}
		s.log.Warn("player construction failed", zap.String("video_id", videoID), zap.Error(err))
		return s.err
	}

	sess.player = p
	s.sess = sess
	s.state = Ready
	s.err = nil
	s.log.Info("player ready", zap.String("video_id", videoID), zap.String("session", sess.ID))
	return nil
}

// deliver forwards a hook invocation unless its session is gone.
func (s *Sampler) deliver(sess *Session, msg tea.Msg) {
	if !sess.Alive() || s.send == nil {
		return
	}
	s.send(msg)
}

// current reports whether id names the live session.
func (s *Sampler) current(id string) bool {
	return s.sess != nil && s.sess.ID == id && s.sess.Alive() && s.state != Destroyed
}

// Update applies one message. It returns the next tick command while
// sampling and nil otherwise. Messages for other sessions are ignored.
func (s *Sampler) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case PlayerReadyMsg:
		if !s.current(msg.Session) {
			return nil
		}
		s.playback.Duration = msg.Duration

	case PlayerStateChangedMsg:
		if !s.current(msg.Session) {
			return nil
		}
		switch msg.State {
		case player.Playing:
			return s.startSampling()
		case player.Paused, player.Ended:
			s.stopSampling()
		}

	case PlayerErroredMsg:
		if !s.current(msg.Session) {
			return nil
		}
		s.stopSampling()
		s.err = &PlayerError{VideoID: s.sess.VideoID, Err: msg.Err}
		s.log.Warn("player reported an error", zap.String("session", msg.Session), zap.Error(msg.Err))

	case TickMsg:
		if s.state != Sampling || !s.current(msg.Session) || msg.Gen != s.gen {
			return nil
		}
		s.playback.CurrentTime = s.sess.player.CurrentTime()
		return s.scheduleTick()
	}
	return nil
}

func (s *Sampler) startSampling() tea.Cmd {
	if s.state != Ready {
		return nil
	}
	s.state = Sampling
	s.playback.IsSampling = true
	// A new generation orphans any tick still pending from an earlier run.
	s.gen++
	s.log.Debug("sampling started", zap.String("session", s.sess.ID))
	return s.scheduleTick()
}

func (s *Sampler) stopSampling() {
	if s.state != Sampling {
		return
	}
	s.state = Ready
	s.playback.IsSampling = false
	s.gen++
	s.log.Debug("sampling stopped", zap.String("session", s.sess.ID))
}

// scheduleTick arms the next poll. The session's liveness is checked again
// when the timer fires, so a destroy that lands while the tick is pending
// suppresses the message entirely.
func (s *Sampler) scheduleTick() tea.Cmd {
	sess, gen := s.sess, s.gen
	return tea.Tick(s.interval, func(time.Time) tea.Msg {
		if !sess.Alive() {
			return nil
		}
		return TickMsg{Session: sess.ID, Gen: gen}
	})
}

// Seek moves the player to seconds (clamped at zero) and reports the new
// position immediately.
func (s *Sampler) Seek(seconds float64) error {
	if s.sess == nil || s.state == Destroyed {
		return ErrNotOpen
	}
	if seconds < 0 {
		seconds = 0
	}
	s.sess.player.SeekTo(seconds)
	// Reflect the jump now; a paused player produces no ticks.
	s.playback.CurrentTime = seconds
	return nil
}

// SeekBy seeks relative to the last sampled position, clamped to
// [0, duration] once the duration is known.
func (s *Sampler) SeekBy(delta float64) error {
	target := s.playback.CurrentTime + delta
	if d := s.playback.Duration; d > 0 && target > d {
		target = d
	}
	return s.Seek(target)
}

// TogglePlay starts or pauses playback when the player supports it. It
// reports false if the player has no transport controls.
func (s *Sampler) TogglePlay() (bool, error) {
	if s.sess == nil || s.state == Destroyed {
		return false, ErrNotOpen
	}
	t, ok := s.sess.player.(player.Transport)
	if !ok {
		return false, nil
	}
	if s.state == Sampling {
		t.Pause()
	} else {
		t.Play()
	}
	return true, nil
}

// Destroy tears the session down: the liveness flag drops first so no
// pending tick or late player event can write state, then the player is
// released. Destroy is idempotent.
func (s *Sampler) Destroy() {
	if s.state == Destroyed {
		return
	}
	s.state = Destroyed
	s.playback.IsSampling = false
	s.gen++
	if s.sess == nil {
		return
	}
	s.sess.alive.Store(false)
	if s.sess.player != nil {
		s.sess.player.Destroy()
	}
	s.log.Info("player destroyed", zap.String("video_id", s.sess.VideoID), zap.String("session", s.sess.ID))
}
