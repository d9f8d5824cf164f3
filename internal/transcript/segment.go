// Package transcript holds the timed segments of one loaded video and the
// rules for reading and editing them.
package transcript

import (
	"encoding/json"
	"fmt"
)

// Mode is the payload shape shared by every segment of a Timeline.
type Mode int

const (
	// Single segments carry one text track.
	Single Mode = iota
	// Bilingual segments carry an original and a translated track.
	Bilingual
)

func (m Mode) String() string {
	switch m {
	case Single:
		return "single"
	case Bilingual:
		return "bilingual"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	switch m {
	case Single, Bilingual:
		return []byte(m.String()), nil
	}
	return nil, fmt.Errorf("unknown mode %d", int(m))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "", "single":
		*m = Single
	case "bilingual":
		*m = Bilingual
	default:
		return fmt.Errorf("unknown mode %q", string(b))
	}
	return nil
}

// Payload is the text carried by a segment: either one track (Single) or a
// pair of parallel tracks (Bilingual). Build it with SingleText or
// BilingualText.
type Payload struct {
	mode        Mode
	text        string
	translation string
}

// SingleText returns a one-track payload.
func SingleText(text string) Payload {
	return Payload{mode: Single, text: text}
}

// BilingualText returns a two-track payload.
func BilingualText(original, translated string) Payload {
	return Payload{mode: Bilingual, text: original, translation: translated}
}

// Mode reports which variant p is.
func (p Payload) Mode() Mode { return p.mode }

// Text returns the only track of a Single payload or the original track of a
// Bilingual one.
func (p Payload) Text() string { return p.text }

// Translation returns the translated track; ok is false for Single payloads.
func (p Payload) Translation() (text string, ok bool) {
	return p.translation, p.mode == Bilingual
}

// Segment is one timed transcript entry covering [Start, End] seconds.
type Segment struct {
	ID      int
	Start   float64
	End     float64
	Payload Payload
}

// WellFormed reports whether the bounds satisfy 0 <= Start < End.
func (s Segment) WellFormed() bool {
	return s.Start >= 0 && s.Start < s.End
}

// Contains reports whether t falls in the closed interval [Start, End].
func (s Segment) Contains(t float64) bool {
	return t >= s.Start && t <= s.End
}

// Duration is End - Start.
func (s Segment) Duration() float64 { return s.End - s.Start }

// segmentJSON is the wire shape. text1/text2 are accepted on input for
// transcripts authored in the two-field layout.
type segmentJSON struct {
	ID          int     `json:"id"`
	Start       float64 `json:"startTime"`
	End         float64 `json:"endTime"`
	Text        *string `json:"text,omitempty"`
	Translation *string `json:"translation,omitempty"`
	Text1       *string `json:"text1,omitempty"`
	Text2       *string `json:"text2,omitempty"`
}

// MarshalJSON flattens the payload into text and, for bilingual segments,
// translation.
func (s Segment) MarshalJSON() ([]byte, error) {
	text := s.Payload.text
	out := segmentJSON{ID: s.ID, Start: s.Start, End: s.End, Text: &text}
	if tr, ok := s.Payload.Translation(); ok {
		out.Translation = &tr
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts {text}, {text, translation} and {text1, text2}.
// The presence of a second track selects the Bilingual variant.
func (s *Segment) UnmarshalJSON(data []byte) error {
	var in segmentJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	s.ID, s.Start, s.End = in.ID, in.Start, in.End

	first := in.Text
	if first == nil {
		first = in.Text1
	}
	second := in.Translation
	if second == nil {
		second = in.Text2
	}

	var text string
	if first != nil {
		text = *first
	}
	if second != nil {
		s.Payload = BilingualText(text, *second)
	} else {
		s.Payload = SingleText(text)
	}
	return nil
}

// Timeline is the ordered sequence of segments for one video.
type Timeline struct {
	Mode     Mode      `json:"mode"`
	Segments []Segment `json:"segments"`
}

// Clone returns a deep copy of tl.
func (tl Timeline) Clone() Timeline {
	segs := make([]Segment, len(tl.Segments))
	copy(segs, tl.Segments)
	return Timeline{Mode: tl.Mode, Segments: segs}
}

// NewTimeline builds a timeline whose mode is taken from the first segment.
// An empty timeline is Single.
func NewTimeline(segs []Segment) Timeline {
	tl := Timeline{Segments: segs}
	if len(segs) > 0 {
		tl.Mode = segs[0].Payload.Mode()
	}
	return tl
}
