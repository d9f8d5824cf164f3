// Package bridge drives a YouTube iframe player running in a browser tab.
// The tab loads an embedded page over HTTP and talks to the Bridge through a
// single websocket: it reports readiness, state changes, errors and the
// playback position, and receives load, seek, play, pause and destroy
// commands.
package bridge

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/fakeyudi/tsync/internal/player"
)

//go:embed page.html
var page []byte

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Event is a message sent by the page.
type Event struct {
	Type     string  `json:"type"` // ready, state, error or time
	Duration float64 `json:"duration,omitempty"`
	State    string  `json:"state,omitempty"`
	Code     int     `json:"code,omitempty"`
	Position float64 `json:"position,omitempty"`
}

// Command is a message sent to the page.
type Command struct {
	Type     string  `json:"type"` // load, seek, play, pause or destroy
	VideoID  string  `json:"videoId,omitempty"`
	Position float64 `json:"position"`
}

// ErrorCode is a YouTube iframe API error code.
type ErrorCode int

func (c ErrorCode) Error() string {
	switch c {
	case 2:
		return "invalid video id"
	case 5:
		return "video cannot be played in an HTML5 player"
	case 100:
		return "video not found or private"
	case 101, 150:
		return "video owner does not allow embedding"
	}
	return fmt.Sprintf("player error %d", int(c))
}

// Bridge serves the player page and implements player.Factory. At most one
// page connection and one player are active at a time.
type Bridge struct {
	log      *zap.Logger
	upgrader websocket.Upgrader
	router   *mux.Router

	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex
	current *Player
}

// New returns a Bridge with its routes registered.
func New(log *zap.Logger) *Bridge {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Bridge{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	r := mux.NewRouter()
	r.HandleFunc("/", b.servePage).Methods(http.MethodGet)
	r.HandleFunc("/ws", b.serveWS).Methods(http.MethodGet)
	b.router = r
	return b
}

// Handler returns the HTTP handler serving the page and the websocket.
func (b *Bridge) Handler() http.Handler { return b.router }

// Connected reports whether a page is attached.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil
}

func (b *Bridge) servePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (b *Bridge) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	b.attach(conn)
	defer b.detach(conn)
	b.log.Info("player page connected", zap.String("remote", r.RemoteAddr))

	done := make(chan struct{})
	go b.pingLoop(conn, done)
	defer close(done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				b.log.Warn("player page closed unexpectedly", zap.Error(err))
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			b.log.Debug("ignoring malformed page message", zap.Error(err))
			continue
		}
		b.dispatch(ev)
	}
}

// attach makes conn the page connection and replays the load command for
// the current player, if any.
func (b *Bridge) attach(conn *websocket.Conn) {
	b.mu.Lock()
	old := b.conn
	b.conn = conn
	p := b.current
	b.mu.Unlock()

	if old != nil {
		old.Close()
	}
	if p != nil {
		b.send(Command{Type: "load", VideoID: p.videoID})
	}
}

func (b *Bridge) detach(conn *websocket.Conn) {
	b.mu.Lock()
	if b.conn == conn {
		b.conn = nil
	}
	b.mu.Unlock()
	conn.Close()
	b.log.Info("player page disconnected")
}

func (b *Bridge) pingLoop(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			b.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (b *Bridge) dispatch(ev Event) {
	b.mu.Lock()
	p := b.current
	b.mu.Unlock()
	if p == nil {
		return
	}

	switch ev.Type {
	case "time":
		p.setPosition(ev.Position)
	case "ready":
		p.events.Ready(ev.Duration)
	case "state":
		st, err := player.ParseState(ev.State)
		if err != nil {
			b.log.Debug("ignoring unknown state", zap.String("state", ev.State))
			return
		}
		p.events.StateChange(st)
	case "error":
		p.events.Error(ErrorCode(ev.Code))
	default:
		b.log.Debug("ignoring page message", zap.String("type", ev.Type))
	}
}

// send writes cmd to the page. Without a page the command is dropped; the
// next page to connect receives the current load command.
func (b *Bridge) send(cmd Command) {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(cmd); err != nil {
		b.log.Warn("sending player command failed", zap.String("type", cmd.Type), zap.Error(err))
	}
}

// Open implements player.Factory. It never blocks on the page: the load
// command is sent now if a page is attached, or when one connects.
func (b *Bridge) Open(videoID string, events player.Events) (player.Player, error) {
	if videoID == "" {
		return nil, errors.New("empty video id")
	}
	p := &Player{bridge: b, videoID: videoID, events: events}

	b.mu.Lock()
	prev := b.current
	b.current = p
	b.mu.Unlock()
	if prev != nil {
		prev.Destroy()
	}

	b.send(Command{Type: "load", VideoID: videoID})
	b.log.Debug("player opened", zap.String("video_id", videoID))
	return p, nil
}

// Player is the bridge's player.Player for one video.
type Player struct {
	bridge  *Bridge
	videoID string
	events  player.Events

	mu        sync.Mutex
	position  float64
	destroyed bool
}

// CurrentTime returns the last position reported by the page.
func (p *Player) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

func (p *Player) setPosition(s float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.destroyed {
		p.position = s
	}
}

func (p *Player) SeekTo(seconds float64) {
	if p.isDestroyed() {
		return
	}
	p.setPosition(seconds)
	p.bridge.send(Command{Type: "seek", Position: seconds})
}

func (p *Player) Play() {
	if !p.isDestroyed() {
		p.bridge.send(Command{Type: "play"})
	}
}

func (p *Player) Pause() {
	if !p.isDestroyed() {
		p.bridge.send(Command{Type: "pause"})
	}
}

// Destroy detaches the player from the bridge and tears down the iframe.
// It is safe to call more than once.
func (p *Player) Destroy() {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return
	}
	p.destroyed = true
	p.mu.Unlock()

	b := p.bridge
	b.mu.Lock()
	owned := b.current == p
	if owned {
		b.current = nil
	}
	b.mu.Unlock()
	if owned {
		b.send(Command{Type: "destroy"})
	}
}

func (p *Player) isDestroyed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.destroyed
}

var (
	_ player.Factory   = (*Bridge)(nil)
	_ player.Player    = (*Player)(nil)
	_ player.Transport = (*Player)(nil)
)
