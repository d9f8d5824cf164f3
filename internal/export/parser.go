package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fakeyudi/tsync/internal/timecode"
	"github.com/fakeyudi/tsync/internal/transcript"
)

// Parser deserializes a transcript file into a Timeline. Parsers do not
// validate ids or bounds; the store does that on Load.
type Parser interface {
	Parse(data []byte) (transcript.Timeline, error)
}

// NewParser returns the parser for f. codec and mode are only used by
// Plain; a nil mode lets it infer the payload shape.
func NewParser(f Format, codec timecode.Codec, mode *transcript.Mode) (Parser, error) {
	switch f {
	case Plain:
		return &PlainParser{Codec: codec, Mode: mode}, nil
	case JSON:
		return &JSONParser{}, nil
	case VTT:
		return &VTTParser{}, nil
	}
	return nil, fmt.Errorf("no parser for %s", f)
}

// JSONParser accepts a timeline object or a bare array of segments.
type JSONParser struct{}

func (p *JSONParser) Parse(data []byte) (transcript.Timeline, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var segs []transcript.Segment
		if err := json.Unmarshal(trimmed, &segs); err != nil {
			return transcript.Timeline{}, fmt.Errorf("failed to parse JSON transcript: %w", err)
		}
		return transcript.NewTimeline(segs), nil
	}

	var raw struct {
		Mode     *transcript.Mode     `json:"mode"`
		Segments []transcript.Segment `json:"segments"`
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return transcript.Timeline{}, fmt.Errorf("failed to parse JSON transcript: %w", err)
	}
	tl := transcript.NewTimeline(raw.Segments)
	if raw.Mode != nil {
		tl.Mode = *raw.Mode
	}
	return tl, nil
}

var (
	cueTiming = regexp.MustCompile(`^((?:\d{2,}:)?\d{2}:\d{2}\.\d{3})\s+-->\s+((?:\d{2,}:)?\d{2}:\d{2}\.\d{3})`)
	cueTag    = regexp.MustCompile(`<[^>]*>`)
)

// VTTParser reads WebVTT cues. Segment ids are assigned 1..n in cue order.
// A cue with two text lines becomes a bilingual segment; further lines are
// appended to the translation.
type VTTParser struct{}

func (p *VTTParser) Parse(data []byte) (transcript.Timeline, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	if !scanner.Scan() || !strings.HasPrefix(strings.TrimPrefix(scanner.Text(), "\ufeff"), "WEBVTT") {
		return transcript.Timeline{}, fmt.Errorf("not a WebVTT file: missing WEBVTT header")
	}

	var segs []transcript.Segment
	lineNo := 1
	for scanner.Scan() {
		lineNo++
		m := cueTiming.FindStringSubmatch(strings.TrimSpace(scanner.Text()))
		if m == nil {
			continue
		}
		start, err := parseVTTStamp(m[1])
		if err != nil {
			return transcript.Timeline{}, fmt.Errorf("line %d: %w", lineNo, err)
		}
		end, err := parseVTTStamp(m[2])
		if err != nil {
			return transcript.Timeline{}, fmt.Errorf("line %d: %w", lineNo, err)
		}

		var lines []string
		for scanner.Scan() {
			lineNo++
			line := strings.TrimRight(scanner.Text(), "\r")
			if line == "" {
				break
			}
			lines = append(lines, strings.TrimSpace(cueTag.ReplaceAllString(line, "")))
		}

		seg := transcript.Segment{ID: len(segs) + 1, Start: start, End: end}
		switch len(lines) {
		case 0:
			seg.Payload = transcript.SingleText("")
		case 1:
			seg.Payload = transcript.SingleText(lines[0])
		default:
			seg.Payload = transcript.BilingualText(lines[0], strings.Join(lines[1:], " "))
		}
		segs = append(segs, seg)
	}
	if err := scanner.Err(); err != nil {
		return transcript.Timeline{}, err
	}
	return transcript.NewTimeline(segs), nil
}

// parseVTTStamp reads [HH:]MM:SS.mmm in whole milliseconds.
func parseVTTStamp(s string) (float64, error) {
	clock, frac, _ := strings.Cut(s, ".")
	ms, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid cue timestamp %q: %w", s, err)
	}
	var whole int64
	for _, part := range strings.Split(clock, ":") {
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid cue timestamp %q: %w", s, err)
		}
		whole = whole*60 + v
	}
	return float64(whole*1000+ms) / 1000, nil
}

var plainLine = regexp.MustCompile(`^\[([^\]]+) - ([^\]]+)\] ?(.*)$`)

// PlainParser reads the download layout back. Time codes must match Codec.
//
// Mode fixes the payload shape: single keeps the whole line as text,
// bilingual splits it at the first TrackSeparator. With a nil Mode the
// timeline is bilingual only if every line contains TrackSeparator, which
// misreads single text that itself contains one.
type PlainParser struct {
	Codec timecode.Codec
	Mode  *transcript.Mode
}

func (p *PlainParser) Parse(data []byte) (transcript.Timeline, error) {
	type row struct {
		start, end float64
		text       string
	}
	var rows []row
	bilingual := true
	if p.Mode != nil {
		bilingual = *p.Mode == transcript.Bilingual
	}
	for i, line := range strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := plainLine.FindStringSubmatch(line)
		if m == nil {
			return transcript.Timeline{}, fmt.Errorf("line %d: not a transcript line: %q", i+1, line)
		}
		start, err := p.Codec.Parse(m[1])
		if err != nil {
			return transcript.Timeline{}, fmt.Errorf("line %d: start: %w", i+1, err)
		}
		end, err := p.Codec.Parse(m[2])
		if err != nil {
			return transcript.Timeline{}, fmt.Errorf("line %d: end: %w", i+1, err)
		}
		if p.Mode == nil && !strings.Contains(m[3], TrackSeparator) {
			bilingual = false
		}
		rows = append(rows, row{start, end, m[3]})
	}

	segs := make([]transcript.Segment, len(rows))
	for i, r := range rows {
		segs[i] = transcript.Segment{ID: i + 1, Start: r.start, End: r.end}
		if bilingual {
			text, tr, _ := strings.Cut(r.text, TrackSeparator)
			segs[i].Payload = transcript.BilingualText(text, tr)
		} else {
			segs[i].Payload = transcript.SingleText(r.text)
		}
	}
	return transcript.NewTimeline(segs), nil
}
