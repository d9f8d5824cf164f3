// Package playertest provides an in-memory player for tests.
package playertest

import (
	"sync"

	"github.com/fakeyudi/tsync/internal/player"
)

// Player is a scriptable player.Player. Tests drive lifecycle events through
// the Events captured at construction.
type Player struct {
	mu        sync.Mutex
	VideoID   string
	Events    player.Events
	now       float64
	seeks     []float64
	reads     int
	playing   bool
	destroyed bool
}

// SetTime sets the position CurrentTime reports.
func (p *Player) SetTime(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = seconds
}

func (p *Player) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reads++
	return p.now
}

func (p *Player) SeekTo(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seeks = append(p.seeks, seconds)
	p.now = seconds
}

func (p *Player) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.destroyed = true
}

func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = true
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
}

// Seeks returns every SeekTo argument in call order.
func (p *Player) Seeks() []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]float64(nil), p.seeks...)
}

// Reads returns how many times CurrentTime was called.
func (p *Player) Reads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reads
}

// Playing reports the last Play/Pause call.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Destroyed reports whether Destroy was called.
func (p *Player) Destroyed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.destroyed
}

// Factory hands out Players and remembers them. Set Err to make Open fail.
type Factory struct {
	mu      sync.Mutex
	Err     error
	players []*Player
}

func (f *Factory) Open(videoID string, events player.Events) (player.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	p := &Player{VideoID: videoID, Events: events}
	f.players = append(f.players, p)
	return p, nil
}

// Last returns the most recently opened player, or nil.
func (f *Factory) Last() *Player {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.players) == 0 {
		return nil
	}
	return f.players[len(f.players)-1]
}

// Opened returns how many players were constructed.
func (f *Factory) Opened() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.players)
}
