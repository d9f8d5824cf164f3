package sampler

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"pgregory.net/rapid"

	"github.com/fakeyudi/tsync/internal/player"
	"github.com/fakeyudi/tsync/internal/player/playertest"
)

// recorder collects messages the sampler sends from player hooks.
type recorder struct{ msgs []tea.Msg }

func (r *recorder) send(msg tea.Msg) { r.msgs = append(r.msgs, msg) }

// pump feeds every recorded message through Update and returns the last
// command produced.
func (r *recorder) pump(s *Sampler) tea.Cmd {
	var cmd tea.Cmd
	msgs := r.msgs
	r.msgs = nil
	for _, m := range msgs {
		if c := s.Update(m); c != nil {
			cmd = c
		}
	}
	return cmd
}

func openSampler(t *testing.T) (*Sampler, *playertest.Player, *recorder) {
	t.Helper()
	f := &playertest.Factory{}
	rec := &recorder{}
	s := New(f, rec.send, WithInterval(time.Millisecond))
	if err := s.Open("dQw4w9WgXcQ"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, f.Last(), rec
}

func TestOpenReady(t *testing.T) {
	s, p, rec := openSampler(t)
	if s.State() != Ready {
		t.Fatalf("want Ready, got %v", s.State())
	}
	p.Events.Ready(212.5)
	rec.pump(s)
	if got := s.Playback(); got.Duration != 212.5 || got.IsSampling || got.CurrentTime != 0 {
		t.Errorf("playback after ready: %+v", got)
	}
}

func TestOpenFailureStaysUninitialized(t *testing.T) {
	boom := errors.New("iframe api unavailable")
	s := New(&playertest.Factory{Err: boom}, nil)
	err := s.Open("dQw4w9WgXcQ")
	if !errors.Is(err, ErrPlayer) || !errors.Is(err, boom) {
		t.Fatalf("want PlayerError wrapping cause, got %v", err)
	}
	if s.State() != Uninitialized {
		t.Errorf("want Uninitialized, got %v", s.State())
	}
	if s.Err() == nil {
		t.Error("error not recorded")
	}
}

func TestOpenTwice(t *testing.T) {
	s, _, _ := openSampler(t)
	if err := s.Open("dQw4w9WgXcQ"); !errors.Is(err, ErrAlreadyOpen) {
		t.Errorf("want ErrAlreadyOpen, got %v", err)
	}
}

func TestSamplingTracksPlayer(t *testing.T) {
	s, p, rec := openSampler(t)
	p.SetTime(1.25)
	p.Events.StateChange(player.Playing)
	cmd := rec.pump(s)
	if cmd == nil {
		t.Fatal("no tick scheduled on Playing")
	}
	if s.State() != Sampling || !s.Playback().IsSampling {
		t.Fatalf("want Sampling, got %v", s.State())
	}

	next := s.Update(cmd())
	if got := s.Playback().CurrentTime; got != 1.25 {
		t.Errorf("want 1.25, got %v", got)
	}
	if next == nil {
		t.Error("tick did not reschedule")
	}

	p.SetTime(2.5)
	s.Update(next())
	if got := s.Playback().CurrentTime; got != 2.5 {
		t.Errorf("want 2.5, got %v", got)
	}
}

func TestPauseStopsSampling(t *testing.T) {
	s, p, rec := openSampler(t)
	p.Events.StateChange(player.Playing)
	cmd := rec.pump(s)

	p.Events.StateChange(player.Paused)
	rec.pump(s)
	if s.State() != Ready || s.Playback().IsSampling {
		t.Fatalf("want Ready after pause, got %v", s.State())
	}
	reads := p.Reads()
	if next := s.Update(cmd()); next != nil {
		t.Error("stale tick rescheduled after pause")
	}
	if p.Reads() != reads {
		t.Error("stale tick read the player")
	}
}

func TestEndedStopsSampling(t *testing.T) {
	s, p, rec := openSampler(t)
	p.Events.StateChange(player.Playing)
	rec.pump(s)
	p.Events.StateChange(player.Ended)
	rec.pump(s)
	if s.State() != Ready {
		t.Errorf("want Ready after end, got %v", s.State())
	}
}

func TestBufferingKeepsState(t *testing.T) {
	s, p, rec := openSampler(t)
	p.Events.StateChange(player.Buffering)
	rec.pump(s)
	if s.State() != Ready {
		t.Errorf("buffering changed state to %v", s.State())
	}
}

func TestPlayerErrorStopsSampling(t *testing.T) {
	s, p, rec := openSampler(t)
	p.Events.StateChange(player.Playing)
	rec.pump(s)
	p.Events.Error(errors.New("video unavailable"))
	rec.pump(s)
	if s.State() != Ready {
		t.Errorf("want Ready, got %v", s.State())
	}
	if !errors.Is(s.Err(), ErrPlayer) {
		t.Errorf("want PlayerError, got %v", s.Err())
	}
}

func TestDestroyBeforeTickFires(t *testing.T) {
	s, p, rec := openSampler(t)
	p.SetTime(4)
	p.Events.StateChange(player.Playing)
	cmd := rec.pump(s)

	s.Destroy()
	if !p.Destroyed() {
		t.Fatal("player not destroyed")
	}
	if msg := cmd(); msg != nil {
		t.Errorf("pending tick fired after destroy: %#v", msg)
	}
	if p.Reads() != 0 {
		t.Errorf("player read %d times after destroy", p.Reads())
	}
	if s.Playback().CurrentTime != 0 {
		t.Errorf("clock written after destroy: %v", s.Playback().CurrentTime)
	}
}

// A tick that already fired and sits in the host's queue when the session
// is destroyed must not read the player once it is handled.
func TestQueuedTickAfterDestroy(t *testing.T) {
	s, p, rec := openSampler(t)
	p.SetTime(4)
	p.Events.StateChange(player.Playing)
	msg := rec.pump(s)()
	tick, ok := msg.(TickMsg)
	if !ok {
		t.Fatalf("want TickMsg, got %#v", msg)
	}

	s.Destroy()
	if cmd := s.Update(tick); cmd != nil {
		t.Error("queued tick scheduled another after destroy")
	}
	if p.Reads() != 0 {
		t.Errorf("player read %d times after destroy", p.Reads())
	}
	if s.Playback().CurrentTime != 0 {
		t.Errorf("clock written after destroy: %v", s.Playback().CurrentTime)
	}
}

func TestDestroyDropsLateEvents(t *testing.T) {
	s, p, rec := openSampler(t)
	s.Destroy()
	p.Events.StateChange(player.Playing)
	p.Events.Ready(100)
	if len(rec.msgs) != 0 {
		t.Fatalf("hooks delivered %d messages after destroy", len(rec.msgs))
	}
	if s.State() != Destroyed {
		t.Errorf("want Destroyed, got %v", s.State())
	}
	s.Destroy()
}

func TestForeignSessionIgnored(t *testing.T) {
	s, _, _ := openSampler(t)
	if cmd := s.Update(PlayerStateChangedMsg{Session: "other", State: player.Playing}); cmd != nil {
		t.Error("foreign session started sampling")
	}
	if s.State() != Ready {
		t.Errorf("state changed to %v", s.State())
	}
}

func TestSeekBy(t *testing.T) {
	s, p, rec := openSampler(t)
	p.Events.Ready(30)
	rec.pump(s)

	p.SetTime(5)
	p.Events.StateChange(player.Playing)
	cmd := rec.pump(s)
	s.Update(cmd())

	if err := s.SeekBy(-10); err != nil {
		t.Fatalf("SeekBy: %v", err)
	}
	if err := s.SeekBy(40); err != nil {
		t.Fatalf("SeekBy: %v", err)
	}
	seeks := p.Seeks()
	if len(seeks) != 2 || seeks[0] != 0 || seeks[1] != 30 {
		t.Errorf("want [0 30], got %v", seeks)
	}
}

func TestSeekAfterDestroy(t *testing.T) {
	s, _, _ := openSampler(t)
	s.Destroy()
	if err := s.Seek(3); !errors.Is(err, ErrNotOpen) {
		t.Errorf("want ErrNotOpen, got %v", err)
	}
}

func TestTogglePlay(t *testing.T) {
	s, p, rec := openSampler(t)
	if ok, err := s.TogglePlay(); !ok || err != nil {
		t.Fatalf("TogglePlay: %v %v", ok, err)
	}
	if !p.Playing() {
		t.Error("player not started")
	}
	p.Events.StateChange(player.Playing)
	rec.pump(s)
	s.TogglePlay()
	if p.Playing() {
		t.Error("player not paused")
	}
}

// Feature: tsync, Property: ticks from earlier generations never write the clock.
func TestPropStaleTicksIgnored(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := &playertest.Factory{}
		rec := &recorder{}
		s := New(f, rec.send, WithInterval(time.Microsecond))
		if err := s.Open("dQw4w9WgXcQ"); err != nil {
			t.Fatalf("Open: %v", err)
		}
		p := f.Last()

		var pending []TickMsg
		steps := rapid.IntRange(1, 30).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 3).Draw(t, "op") {
			case 0:
				p.Events.StateChange(player.Playing)
			case 1:
				p.Events.StateChange(player.Paused)
			case 2:
				p.SetTime(rapid.Float64Range(0, 600).Draw(t, "now"))
			case 3:
				s.Destroy()
			}
			if cmd := rec.pump(s); cmd != nil {
				if m, ok := cmd().(TickMsg); ok {
					pending = append(pending, m)
				}
			}
		}

		for _, m := range pending {
			before := s.Playback().CurrentTime
			reads := p.Reads()
			cmd := s.Update(m)
			if s.State() == Destroyed && cmd != nil {
				t.Fatal("tick handled after destroy scheduled another")
			}
			if m.Gen != s.gen || s.State() != Sampling {
				if p.Reads() != reads || s.Playback().CurrentTime != before {
					t.Fatalf("stale tick gen %d (current %d) wrote the clock", m.Gen, s.gen)
				}
			}
		}
	})
}
