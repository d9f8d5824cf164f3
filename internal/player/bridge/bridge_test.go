package bridge_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fakeyudi/tsync/internal/player"
	"github.com/fakeyudi/tsync/internal/player/bridge"
)

// page is a test double for the browser tab.
type page struct {
	t    *testing.T
	conn *websocket.Conn
}

func dial(t *testing.T, srv *httptest.Server) *page {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &page{t: t, conn: conn}
}

func (p *page) expect(typ string) bridge.Command {
	p.t.Helper()
	p.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var cmd bridge.Command
	if err := p.conn.ReadJSON(&cmd); err != nil {
		p.t.Fatalf("waiting for %s: %v", typ, err)
	}
	if cmd.Type != typ {
		p.t.Fatalf("want %s command, got %+v", typ, cmd)
	}
	return cmd
}

func (p *page) report(ev bridge.Event) {
	p.t.Helper()
	if err := p.conn.WriteJSON(ev); err != nil {
		p.t.Fatalf("report: %v", err)
	}
}

type recorded struct {
	ready  chan float64
	states chan player.State
	errs   chan error
}

func newRecorded() (*recorded, player.Events) {
	r := &recorded{
		ready:  make(chan float64, 4),
		states: make(chan player.State, 4),
		errs:   make(chan error, 4),
	}
	return r, player.Events{
		OnReady:       func(d float64) { r.ready <- d },
		OnStateChange: func(s player.State) { r.states <- s },
		OnError:       func(err error) { r.errs <- err },
	}
}

func waitFor[T any](t *testing.T, ch chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for player event")
	}
	var zero T
	return zero
}

func TestServesPage(t *testing.T) {
	srv := httptest.NewServer(bridge.New(nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "iframe_api") {
		t.Errorf("page: %d %q", resp.StatusCode, body)
	}
}

func TestOpenBeforePageConnects(t *testing.T) {
	b := bridge.New(nil)
	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	rec, events := newRecorded()
	p, err := b.Open("dQw4w9WgXcQ", events)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	tab := dial(t, srv)
	if cmd := tab.expect("load"); cmd.VideoID != "dQw4w9WgXcQ" {
		t.Errorf("load: %+v", cmd)
	}

	tab.report(bridge.Event{Type: "ready", Duration: 212})
	if d := waitFor(t, rec.ready); d != 212 {
		t.Errorf("duration: %v", d)
	}

	// Events are dispatched in order, so the position is in place once the
	// state change arrives.
	tab.report(bridge.Event{Type: "time", Position: 3.25})
	tab.report(bridge.Event{Type: "state", State: "playing"})
	if s := waitFor(t, rec.states); s != player.Playing {
		t.Errorf("state: %v", s)
	}
	if got := p.CurrentTime(); got != 3.25 {
		t.Errorf("CurrentTime: %v", got)
	}
}

func TestCommandsReachPage(t *testing.T) {
	b := bridge.New(nil)
	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	_, events := newRecorded()
	p, err := b.Open("dQw4w9WgXcQ", events)
	if err != nil {
		t.Fatal(err)
	}
	tab := dial(t, srv)
	tab.expect("load")

	p.SeekTo(0)
	if cmd := tab.expect("seek"); cmd.Position != 0 {
		t.Errorf("seek: %+v", cmd)
	}
	tr := p.(player.Transport)
	tr.Play()
	tab.expect("play")
	tr.Pause()
	tab.expect("pause")

	p.Destroy()
	tab.expect("destroy")
	p.Destroy()
	p.SeekTo(4)
	if !b.Connected() {
		t.Error("page detached by Destroy")
	}
}

func TestErrorCodeMapped(t *testing.T) {
	b := bridge.New(nil)
	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	rec, events := newRecorded()
	if _, err := b.Open("dQw4w9WgXcQ", events); err != nil {
		t.Fatal(err)
	}
	tab := dial(t, srv)
	tab.expect("load")
	tab.report(bridge.Event{Type: "error", Code: 150})

	err := waitFor(t, rec.errs)
	var code bridge.ErrorCode
	if !errors.As(err, &code) || code != 150 {
		t.Fatalf("want ErrorCode 150, got %v", err)
	}
	if !strings.Contains(err.Error(), "embedding") {
		t.Errorf("message: %q", err)
	}
}

func TestDestroyedPlayerGetsNoEvents(t *testing.T) {
	b := bridge.New(nil)
	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	first, events := newRecorded()
	p, err := b.Open("aaaaaaaaaaa", events)
	if err != nil {
		t.Fatal(err)
	}
	tab := dial(t, srv)
	tab.expect("load")

	// Opening a second video replaces the first player.
	second, events2 := newRecorded()
	if _, err := b.Open("bbbbbbbbbbb", events2); err != nil {
		t.Fatal(err)
	}
	if cmd := tab.expect("load"); cmd.VideoID != "bbbbbbbbbbb" {
		t.Errorf("load: %+v", cmd)
	}

	tab.report(bridge.Event{Type: "time", Position: 9})
	tab.report(bridge.Event{Type: "ready", Duration: 30})
	waitFor(t, second.ready)
	select {
	case <-first.ready:
		t.Error("replaced player received ready")
	default:
	}
	if p.CurrentTime() != 0 {
		t.Errorf("replaced player clock moved to %v", p.CurrentTime())
	}
}

func TestOpenRejectsEmptyID(t *testing.T) {
	if _, err := bridge.New(nil).Open("", player.Events{}); err == nil {
		t.Error("empty id accepted")
	}
}
