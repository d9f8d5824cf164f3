package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fakeyudi/tsync/internal/timecode"
	"github.com/fakeyudi/tsync/internal/transcript"
)

// Renderer serializes a Timeline to bytes.
type Renderer interface {
	Render(tl transcript.Timeline) ([]byte, error)
}

// NewRenderer returns the renderer for f. codec is only used by Plain.
func NewRenderer(f Format, codec timecode.Codec) (Renderer, error) {
	switch f {
	case Plain:
		return &PlainRenderer{Codec: codec}, nil
	case JSON:
		return &JSONRenderer{}, nil
	case VTT:
		return &VTTRenderer{}, nil
	}
	return nil, fmt.Errorf("no renderer for %s", f)
}

// ErrNotPlain is returned by PlainRenderer for a timeline whose text would
// not read back from the plain layout.
var ErrNotPlain = errors.New("transcript cannot be written as plain text")

// PlainRenderer renders the download layout produced by Serialize. It
// refuses text that PlainParser could not read back: line breaks in any
// track, and original text that would end early at TrackSeparator.
type PlainRenderer struct {
	Codec timecode.Codec
}

func (r *PlainRenderer) Render(tl transcript.Timeline) ([]byte, error) {
	for _, seg := range tl.Segments {
		if err := plainSafe(seg, tl.Mode); err != nil {
			return nil, err
		}
	}
	return []byte(Serialize(tl, r.Codec)), nil
}

func plainSafe(seg transcript.Segment, mode transcript.Mode) error {
	text := seg.Payload.Text()
	tr, _ := seg.Payload.Translation()
	if strings.ContainsAny(text, "\r\n") || strings.ContainsAny(tr, "\r\n") {
		return fmt.Errorf("%w: segment %d contains a line break (use json)", ErrNotPlain, seg.ID)
	}
	if mode == transcript.Bilingual {
		if got, _, _ := strings.Cut(text+TrackSeparator+tr, TrackSeparator); got != text {
			return fmt.Errorf("%w: segment %d text contains %q (use json)", ErrNotPlain, seg.ID, TrackSeparator)
		}
	}
	return nil
}

// JSONRenderer renders a Timeline as indented JSON. It is lossless.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(tl transcript.Timeline) ([]byte, error) {
	if tl.Segments == nil {
		tl.Segments = []transcript.Segment{}
	}
	return json.MarshalIndent(tl, "", "  ")
}

// VTTRenderer renders WebVTT cues. Bilingual segments put the translation on
// a second cue line.
type VTTRenderer struct{}

func (r *VTTRenderer) Render(tl transcript.Timeline) ([]byte, error) {
	var sb strings.Builder
	sb.WriteString("WEBVTT\n")
	for _, seg := range tl.Segments {
		fmt.Fprintf(&sb, "\n%d\n%s --> %s\n", seg.ID, vttStamp(seg.Start), vttStamp(seg.End))
		sb.WriteString(oneLine(seg.Payload.Text()))
		sb.WriteByte('\n')
		if tr, ok := seg.Payload.Translation(); ok {
			sb.WriteString(oneLine(tr))
			sb.WriteByte('\n')
		}
	}
	return []byte(sb.String()), nil
}

// vttStamp formats seconds as HH:MM:SS.mmm, truncating.
func vttStamp(seconds float64) string {
	ms := int64(timecode.New(timecode.MinutesMillis).Truncate(seconds)*1000 + 0.5)
	h := ms / 3_600_000
	ms %= 3_600_000
	m := ms / 60_000
	ms %= 60_000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, ms/1000, ms%1000)
}

// oneLine keeps a cue's text from ending the cue early. An empty track is
// written as a single space so the cue keeps its line count.
func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if strings.TrimSpace(s) == "" {
		return " "
	}
	return s
}
