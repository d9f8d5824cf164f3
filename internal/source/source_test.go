package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fakeyudi/tsync/internal/timecode"
	"github.com/fakeyudi/tsync/internal/transcript"
)

var mmss = timecode.New(timecode.MinutesMillis)

func TestDemoLoads(t *testing.T) {
	tl := Demo()
	if tl.Mode != transcript.Bilingual {
		t.Errorf("want bilingual demo, got %v", tl.Mode)
	}
	if len(tl.Segments) != 25 {
		t.Fatalf("want 25 segments, got %d", len(tl.Segments))
	}
	first := tl.Segments[0]
	if first.Start != 0.5 || first.End != 2 || first.Payload.Text() != "In the beginning" {
		t.Errorf("first segment: %+v", first)
	}
	if tr, _ := first.Payload.Translation(); tr != "Am Anfang" {
		t.Errorf("first translation: %q", tr)
	}

	s := transcript.NewStore(mmss)
	if err := s.Load(tl); err != nil {
		t.Errorf("demo rejected by store: %v", err)
	}
}

func TestLoadByExtension(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.json": `[{"id":1,"startTime":0.5,"endTime":2,"text":"In the beginning"}]`,
		"a.vtt":  "WEBVTT\n\n00:00.500 --> 00:02.000\nIn the beginning\n",
		"a.txt":  "[00:00.500 - 00:02.000] In the beginning",
	}
	for name, body := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatal(err)
			}
			tl, err := Load(path, mmss)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			want := transcript.Segment{ID: 1, Start: 0.5, End: 2, Payload: transcript.SingleText("In the beginning")}
			if len(tl.Segments) != 1 || tl.Segments[0] != want {
				t.Errorf("got %+v", tl.Segments)
			}
		})
	}
}

func TestLoadWithMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "songs.txt")
	if err := os.WriteFile(path, []byte("[00:00.500 - 00:02.000] rock | roll"), 0o644); err != nil {
		t.Fatal(err)
	}

	tl, err := Load(path, mmss, WithMode(transcript.Single))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tl.Mode != transcript.Single || tl.Segments[0].Payload.Text() != "rock | roll" {
		t.Errorf("single: got %v %+v", tl.Mode, tl.Segments)
	}

	tl, err = Load(path, mmss)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tr, ok := tl.Segments[0].Payload.Translation(); !ok || tr != "roll" {
		t.Errorf("inferred: got %v %+v", tl.Mode, tl.Segments)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"), mmss)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("want ErrNotExist, got %v", err)
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.txt")
	if err := os.WriteFile(path, []byte("[00:00.500 - 00:02.000] one"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type result struct {
		tl  transcript.Timeline
		err error
	}
	got := make(chan result, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, mmss, func(tl transcript.Timeline, err error) {
			got <- result{tl, err}
		})
	}()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("[00:00.500 - 00:02.000] two"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case r := <-got:
		if r.err != nil {
			t.Fatalf("reload error: %v", r.err)
		}
		if len(r.tl.Segments) != 1 || r.tl.Segments[0].Payload.Text() != "two" {
			t.Errorf("reloaded timeline: %+v", r.tl)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload within 3s")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(time.Second):
		t.Error("Watch did not return after cancel")
	}
}
