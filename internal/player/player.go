// Package player defines the narrow capability the sync engine needs from
// an external media player. Concrete players live in sub-packages.
package player

import "fmt"

// State is a playback state reported through Events.OnStateChange.
type State int

const (
	Unstarted State = iota
	Playing
	Paused
	Ended
	Buffering
	Cued
)

func (s State) String() string {
	switch s {
	case Unstarted:
		return "unstarted"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Ended:
		return "ended"
	case Buffering:
		return "buffering"
	case Cued:
		return "cued"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ParseState maps a state name back to a State.
func ParseState(name string) (State, error) {
	for s := Unstarted; s <= Cued; s++ {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown player state %q", name)
}

// Player is a constructed player for one video.
type Player interface {
	// CurrentTime returns the playback position in seconds. It must not block.
	CurrentTime() float64
	SeekTo(seconds float64)
	// Destroy releases the player. No events are delivered afterwards.
	Destroy()
}

// Transport is implemented by players that can be started and paused from
// the engine side.
type Transport interface {
	Play()
	Pause()
}

// Events are the lifecycle hooks a player calls. Hooks may be invoked from
// any goroutine; nil hooks are skipped.
type Events struct {
	OnReady       func(duration float64)
	OnStateChange func(State)
	OnError       func(error)
}

// Ready calls OnReady if set.
func (e Events) Ready(duration float64) {
	if e.OnReady != nil {
		e.OnReady(duration)
	}
}

// StateChange calls OnStateChange if set.
func (e Events) StateChange(s State) {
	if e.OnStateChange != nil {
		e.OnStateChange(s)
	}
}

// Error calls OnError if set.
func (e Events) Error(err error) {
	if e.OnError != nil {
		e.OnError(err)
	}
}

// Factory constructs a player for a video id.
type Factory interface {
	Open(videoID string, events Events) (Player, error)
}
