// Package timecode converts between seconds and the fixed-width display
// strings used for segment boundaries.
package timecode

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// ErrInvalid is returned by Parse when the text does not match the layout.
var ErrInvalid = errors.New("invalid time code")

// Layout selects one of the two display grammars.
type Layout int

const (
	// MinutesMillis renders MM:SS.mmm.
	MinutesMillis Layout = iota
	// HoursCentis renders HH:MM:SS.cc.
	HoursCentis
)

const (
	minutesMillisName = "mm:ss.mmm"
	hoursCentisName   = "hh:mm:ss.cc"
)

// String returns the config name of the layout.
func (l Layout) String() string {
	switch l {
	case MinutesMillis:
		return minutesMillisName
	case HoursCentis:
		return hoursCentisName
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

// ParseLayout maps a config name ("mm:ss.mmm" or "hh:mm:ss.cc") to a Layout.
// The empty string selects MinutesMillis.
func ParseLayout(name string) (Layout, error) {
	switch name {
	case "", minutesMillisName:
		return MinutesMillis, nil
	case hoursCentisName:
		return HoursCentis, nil
	}
	return 0, fmt.Errorf("unknown time format %q (want %q or %q)", name, minutesMillisName, hoursCentisName)
}

// The leading field may widen past two digits for long media, up to
// 999999 minutes or 99999 hours; every other field is fixed width.
var (
	minutesMillisRe = regexp.MustCompile(`^(\d{2,6}):(\d{2})\.(\d{3})$`)
	hoursCentisRe   = regexp.MustCompile(`^(\d{2,5}):(\d{2}):(\d{2})\.(\d{2})$`)
)

// tolerance absorbs binary representation error (2.3*1000 = 2299.9999...)
// before truncating to whole sub-second units.
const tolerance = 1e-6

// Codec formats and parses times for one Layout. The zero value uses
// MinutesMillis.
type Codec struct {
	layout Layout
}

// New returns a Codec for layout.
func New(layout Layout) Codec {
	return Codec{layout: layout}
}

// Layout reports the codec's layout.
func (c Codec) Layout() Layout { return c.layout }

// unitsPerSecond is the sub-second resolution of the layout.
func (c Codec) unitsPerSecond() int64 {
	if c.layout == HoursCentis {
		return 100
	}
	return 1000
}

// Resolution returns the smallest representable step in seconds.
func (c Codec) Resolution() float64 {
	return 1 / float64(c.unitsPerSecond())
}

// units truncates seconds to whole sub-second units. Negative and NaN
// values clamp to zero.
func (c Codec) units(seconds float64) int64 {
	if math.IsNaN(seconds) || seconds <= 0 {
		return 0
	}
	if math.IsInf(seconds, 1) {
		return math.MaxInt64 / 1000
	}
	return int64(math.Floor(seconds*float64(c.unitsPerSecond()) + tolerance))
}

// Truncate drops everything below the layout's resolution.
func (c Codec) Truncate(seconds float64) float64 {
	return float64(c.units(seconds)) / float64(c.unitsPerSecond())
}

// Format renders seconds in the codec's layout. Sub-second digits are
// truncated, not rounded.
func (c Codec) Format(seconds float64) string {
	u := c.units(seconds)
	per := c.unitsPerSecond()
	frac := u % per
	whole := u / per
	secs := whole % 60
	mins := whole / 60

	if c.layout == HoursCentis {
		return fmt.Sprintf("%02d:%02d:%02d.%02d", mins/60, mins%60, secs, frac)
	}
	return fmt.Sprintf("%02d:%02d.%03d", mins, secs, frac)
}

// Parse reads text written in the codec's layout. Anything else, including
// out-of-range minute or second fields, yields ErrInvalid.
func (c Codec) Parse(text string) (float64, error) {
	var fields []string
	if c.layout == HoursCentis {
		fields = hoursCentisRe.FindStringSubmatch(text)
	} else {
		fields = minutesMillisRe.FindStringSubmatch(text)
	}
	if fields == nil {
		return 0, fmt.Errorf("%w: %q does not match %s", ErrInvalid, text, c.layout)
	}

	nums := make([]int64, len(fields)-1)
	for i, f := range fields[1:] {
		n, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrInvalid, text, err)
		}
		nums[i] = n
	}

	var whole, frac int64
	if c.layout == HoursCentis {
		h, m, s := nums[0], nums[1], nums[2]
		if m > 59 || s > 59 {
			return 0, fmt.Errorf("%w: %q has a field out of range", ErrInvalid, text)
		}
		whole, frac = h*3600+m*60+s, nums[3]
	} else {
		m, s := nums[0], nums[1]
		if s > 59 {
			return 0, fmt.Errorf("%w: %q has a field out of range", ErrInvalid, text)
		}
		whole, frac = m*60+s, nums[2]
	}

	per := c.unitsPerSecond()
	return float64(whole*per+frac) / float64(per), nil
}
