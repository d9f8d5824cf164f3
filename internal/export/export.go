// Package export renders a timeline for download and parses the same
// formats back into a timeline.
package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/fakeyudi/tsync/internal/timecode"
	"github.com/fakeyudi/tsync/internal/transcript"
)

// Format names an on-disk transcript representation.
type Format int

const (
	Plain Format = iota
	JSON
	VTT
)

func (f Format) String() string {
	switch f {
	case Plain:
		return "txt"
	case JSON:
		return "json"
	case VTT:
		return "vtt"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// FileName is the download name for f.
func (f Format) FileName() string {
	return "transcript." + f.String()
}

// ParseFormat accepts a format name or a file extension with or without
// the leading dot.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "", "txt", "text", "plain":
		return Plain, nil
	case "json":
		return JSON, nil
	case "vtt", "webvtt":
		return VTT, nil
	}
	return 0, fmt.Errorf("unknown export format %q", name)
}

// TrackSeparator joins the two tracks of a bilingual segment on one line.
const TrackSeparator = " | "

// Serialize renders tl in the plain download layout: one
// "[start - end] text" line per segment, joined by "\n", with no trailing
// newline. Bilingual lines carry "text | translation". Text is written
// as is; PlainRenderer checks that the result reads back.
func Serialize(tl transcript.Timeline, codec timecode.Codec) string {
	var sb strings.Builder
	for i, seg := range tl.Segments {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "[%s - %s] %s", codec.Format(seg.Start), codec.Format(seg.End), seg.Payload.Text())
		if tl.Mode == transcript.Bilingual {
			tr, _ := seg.Payload.Translation()
			sb.WriteString(TrackSeparator)
			sb.WriteString(tr)
		}
	}
	return sb.String()
}

// Export renders tl in format f and hands it to sink under the format's
// download name. It returns where the sink put it.
func Export(ctx context.Context, sink Sink, tl transcript.Timeline, codec timecode.Codec, f Format) (string, error) {
	r, err := NewRenderer(f, codec)
	if err != nil {
		return "", err
	}
	data, err := r.Render(tl)
	if err != nil {
		return "", fmt.Errorf("rendering %s: %w", f, err)
	}
	return sink.Save(ctx, f.FileName(), data)
}
