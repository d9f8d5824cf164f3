package transcript

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSegmentJSONShapes(t *testing.T) {
	cases := []struct {
		name      string
		in        string
		wantMode  Mode
		wantText  string
		wantTrans string
	}{
		{"single", `{"id":1,"startTime":0.5,"endTime":2,"text":"In the beginning"}`, Single, "In the beginning", ""},
		{"translation", `{"id":1,"startTime":0.5,"endTime":2,"text":"In the beginning","translation":"Am Anfang"}`, Bilingual, "In the beginning", "Am Anfang"},
		{"text1 text2", `{"id":1,"startTime":0.5,"endTime":2,"text1":"In the beginning","text2":"Am Anfang"}`, Bilingual, "In the beginning", "Am Anfang"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seg Segment
			if err := json.Unmarshal([]byte(tc.in), &seg); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if seg.ID != 1 || seg.Start != 0.5 || seg.End != 2 {
				t.Errorf("bounds: %+v", seg)
			}
			if seg.Payload.Mode() != tc.wantMode || seg.Payload.Text() != tc.wantText {
				t.Errorf("payload: %+v", seg.Payload)
			}
			if tr, _ := seg.Payload.Translation(); tr != tc.wantTrans {
				t.Errorf("translation: want %q, got %q", tc.wantTrans, tr)
			}
		})
	}
}

func TestSegmentMarshalOmitsTranslationForSingle(t *testing.T) {
	data, err := json.Marshal(Segment{ID: 2, Start: 2.3, End: 3.5, Payload: SingleText("")})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got := string(data)
	if strings.Contains(got, "translation") {
		t.Errorf("single segment carries translation: %s", got)
	}
	if !strings.Contains(got, `"text":""`) {
		t.Errorf("empty text dropped: %s", got)
	}
}

func TestTimelineJSONMode(t *testing.T) {
	tl := Timeline{Mode: Bilingual, Segments: []Segment{
		{ID: 1, Start: 0, End: 1, Payload: BilingualText("a", "b")},
	}}
	data, err := json.Marshal(tl)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back Timeline
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Mode != Bilingual || len(back.Segments) != 1 || back.Segments[0] != tl.Segments[0] {
		t.Errorf("timeline changed in transit: %+v", back)
	}
}
