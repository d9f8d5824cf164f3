package session

import (
	"testing"

	"github.com/fakeyudi/tsync/internal/transcript"
)

func TestRecordConversion(t *testing.T) {
	tl := transcript.Timeline{Mode: transcript.Bilingual, Segments: []transcript.Segment{
		{ID: 1, Start: 0.5, End: 2, Payload: transcript.BilingualText("In the beginning", "Am Anfang")},
	}}
	s := New("dQw4w9WgXcQ", "https://youtu.be/dQw4w9WgXcQ", "mm:ss.mmm", tl)
	s.LastPosition = 1.25

	rec, err := toRecord(s)
	if err != nil {
		t.Fatalf("toRecord: %v", err)
	}
	if rec.VideoID != s.VideoID || rec.ID != s.ID {
		t.Errorf("keys: %+v", rec)
	}

	back, err := fromRecord(rec)
	if err != nil {
		t.Fatalf("fromRecord: %v", err)
	}
	if back.Timeline.Mode != transcript.Bilingual || back.Timeline.Segments[0] != tl.Segments[0] {
		t.Errorf("timeline: %+v", back.Timeline)
	}
	if back.LastPosition != 1.25 || back.URL != s.URL {
		t.Errorf("fields: %+v", back)
	}
}

func TestFromRecordBadTimeline(t *testing.T) {
	if _, err := fromRecord(sessionRecord{VideoID: "x", Timeline: "{"}); err == nil {
		t.Error("corrupt timeline accepted")
	}
}

func TestRedisKey(t *testing.T) {
	if got := RedisKey("dQw4w9WgXcQ"); got != "tsync:session:dQw4w9WgXcQ" {
		t.Errorf("RedisKey: %q", got)
	}
	if (sessionRecord{}).TableName() != "tsync_sessions" {
		t.Error("unexpected table name")
	}
}
