package transcript

import (
	"errors"
	"fmt"

	"github.com/fakeyudi/tsync/internal/timecode"
)

var (
	// ErrDuplicateID is returned by Load when two segments share an id.
	ErrDuplicateID = errors.New("duplicate segment id")
	// ErrMixedPayload is returned by Load when a segment's payload variant
	// differs from the timeline's mode.
	ErrMixedPayload = errors.New("segment payload does not match timeline mode")
	// ErrMalformedSegment is returned by Load for a segment without 0 <= start < end.
	ErrMalformedSegment = errors.New("segment bounds are not well-formed")
	// ErrEditRejected is matched by every *EditError.
	ErrEditRejected = errors.New("edit rejected")
)

// Field names one editable part of a segment.
type Field int

const (
	StartTime Field = iota
	EndTime
	// Text is the single track, or the original track of a bilingual segment.
	Text
	// Translation is the second track of a bilingual segment.
	Translation
)

func (f Field) String() string {
	switch f {
	case StartTime:
		return "start"
	case EndTime:
		return "end"
	case Text:
		return "text"
	case Translation:
		return "translation"
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

// ParseField maps "start", "end", "text" or "translation" to a Field.
func ParseField(name string) (Field, error) {
	switch name {
	case "start", "startTime":
		return StartTime, nil
	case "end", "endTime":
		return EndTime, nil
	case "text", "text1":
		return Text, nil
	case "translation", "text2":
		return Translation, nil
	}
	return 0, fmt.Errorf("unknown field %q", name)
}

// IsTime reports whether f is a time bound.
func (f Field) IsTime() bool { return f == StartTime || f == EndTime }

// EditError describes a rejected UpdateField call. The segment it names is
// left exactly as it was.
type EditError struct {
	Index  int
	Field  Field
	Value  string
	Reason string
	Err    error // underlying cause, e.g. timecode.ErrInvalid; may be nil
}

func (e *EditError) Error() string {
	return fmt.Sprintf("edit rejected: segment %d %s = %q: %s", e.Index, e.Field, e.Value, e.Reason)
}

// Is matches ErrEditRejected.
func (e *EditError) Is(target error) bool { return target == ErrEditRejected }

func (e *EditError) Unwrap() error { return e.Err }

// Store exclusively owns the Timeline of the loaded video. All mutation goes
// through Load and UpdateField.
type Store struct {
	codec  timecode.Codec
	mode   Mode
	segs   []Segment
	loaded bool
}

// NewStore returns an empty store whose time fields are parsed with codec.
func NewStore(codec timecode.Codec) *Store {
	return &Store{codec: codec}
}

// Codec returns the codec used for time fields.
func (s *Store) Codec() timecode.Codec { return s.codec }

// Load replaces the timeline wholesale. On error the previous timeline is
// retained untouched.
func (s *Store) Load(tl Timeline) error {
	seen := make(map[int]int, len(tl.Segments))
	for i, seg := range tl.Segments {
		if j, dup := seen[seg.ID]; dup {
			return fmt.Errorf("%w: id %d at positions %d and %d", ErrDuplicateID, seg.ID, j, i)
		}
		seen[seg.ID] = i
		if seg.Payload.Mode() != tl.Mode {
			return fmt.Errorf("%w: segment %d is %s, timeline is %s", ErrMixedPayload, seg.ID, seg.Payload.Mode(), tl.Mode)
		}
		if !seg.WellFormed() {
			return fmt.Errorf("%w: segment %d has start %v, end %v", ErrMalformedSegment, seg.ID, seg.Start, seg.End)
		}
	}

	segs := make([]Segment, len(tl.Segments))
	copy(segs, tl.Segments)
	s.segs = segs
	s.mode = tl.Mode
	s.loaded = true
	return nil
}

// Loaded reports whether a timeline has been installed.
func (s *Store) Loaded() bool { return s.loaded }

// Mode returns the payload mode of the current timeline.
func (s *Store) Mode() Mode { return s.mode }

// Len returns the number of segments.
func (s *Store) Len() int { return len(s.segs) }

// At returns the segment at index.
func (s *Store) At(index int) (Segment, bool) {
	if index < 0 || index >= len(s.segs) {
		return Segment{}, false
	}
	return s.segs[index], true
}

// All returns a copy of the segments in collection order.
func (s *Store) All() []Segment {
	out := make([]Segment, len(s.segs))
	copy(out, s.segs)
	return out
}

// Timeline returns a copy of the current timeline.
func (s *Store) Timeline() Timeline {
	return Timeline{Mode: s.mode, Segments: s.All()}
}

// Display returns the current value of field as it would be shown for
// editing: time bounds are formatted with the store's codec.
func (s *Store) Display(index int, field Field) (string, bool) {
	seg, ok := s.At(index)
	if !ok {
		return "", false
	}
	switch field {
	case StartTime:
		return s.codec.Format(seg.Start), true
	case EndTime:
		return s.codec.Format(seg.End), true
	case Text:
		return seg.Payload.Text(), true
	case Translation:
		return seg.Payload.Translation()
	}
	return "", false
}

// UpdateField applies rawValue to one field of the segment at index. Time
// values must parse with the store's codec and keep start < end against the
// segment's other bound; text values are always accepted. A rejected edit
// returns an *EditError and changes nothing.
func (s *Store) UpdateField(index int, field Field, rawValue string) error {
	reject := func(reason string, err error) error {
		return &EditError{Index: index, Field: field, Value: rawValue, Reason: reason, Err: err}
	}
	if index < 0 || index >= len(s.segs) {
		return reject("no such segment", nil)
	}

	seg := s.segs[index]
	switch field {
	case StartTime, EndTime:
		v, err := s.codec.Parse(rawValue)
		if err != nil {
			return reject("not a "+s.codec.Layout().String()+" time", err)
		}
		if field == StartTime {
			seg.Start = v
		} else {
			seg.End = v
		}
		if !seg.WellFormed() {
			return reject("start must be before end", nil)
		}
	case Text:
		if tr, ok := seg.Payload.Translation(); ok {
			seg.Payload = BilingualText(rawValue, tr)
		} else {
			seg.Payload = SingleText(rawValue)
		}
	case Translation:
		if seg.Payload.Mode() != Bilingual {
			return reject("timeline has no translation track", nil)
		}
		seg.Payload = BilingualText(seg.Payload.Text(), rawValue)
	default:
		return reject("unknown field", nil)
	}

	s.segs[index] = seg
	return nil
}
