package timecode

import (
	"errors"
	"testing"

	"pgregory.net/rapid"
)

func TestFormatMinutesMillis(t *testing.T) {
	c := New(MinutesMillis)
	cases := []struct {
		in   float64
		want string
	}{
		{65.125, "01:05.125"},
		{0, "00:00.000"},
		{0.5, "00:00.500"},
		{2.3, "00:02.300"},
		{3.5, "00:03.500"},
		{4.9669, "00:04.966"}, // truncated, not rounded
		{-3, "00:00.000"},
		{6000, "100:00.000"},
	}
	for _, tc := range cases {
		if got := c.Format(tc.in); got != tc.want {
			t.Errorf("Format(%v): want %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestFormatHoursCentis(t *testing.T) {
	c := New(HoursCentis)
	cases := []struct {
		in   float64
		want string
	}{
		{65.125, "00:01:05.12"},
		{3725.999, "01:02:05.99"},
		{2.3, "00:00:02.30"},
		{0, "00:00:00.00"},
	}
	for _, tc := range cases {
		if got := c.Format(tc.in); got != tc.want {
			t.Errorf("Format(%v): want %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestParse(t *testing.T) {
	got, err := New(MinutesMillis).Parse("01:05.125")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != 65.125 {
		t.Errorf("want 65.125, got %v", got)
	}

	got, err = New(HoursCentis).Parse("01:02:05.99")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != 3725.99 {
		t.Errorf("want 3725.99, got %v", got)
	}
}

func TestParseRejectsOtherGrammars(t *testing.T) {
	mm := New(MinutesMillis)
	hh := New(HoursCentis)
	for _, in := range []string{
		"", "1:05.125", "01:05.12", "01:05.1250", "01:65.000", "01:05,125",
		" 01:05.125", "01:05.125 ", "aa:bb.ccc", "00:00:05.12", "-1:05.125",
		"1000000:00.000", "153722867280912931:00.000", "9223372036854775807:00.000",
	} {
		if _, err := mm.Parse(in); !errors.Is(err, ErrInvalid) {
			t.Errorf("mm:ss.mmm Parse(%q): want ErrInvalid, got %v", in, err)
		}
	}
	for _, in := range []string{
		"", "00:01:05.125", "00:61:05.12", "00:01:75.12", "01:05.125", "0:01:05.12",
		"100000:00:00.00", "2562047788015216:00:00.00",
	} {
		if _, err := hh.Parse(in); !errors.Is(err, ErrInvalid) {
			t.Errorf("hh:mm:ss.cc Parse(%q): want ErrInvalid, got %v", in, err)
		}
	}
}

func TestParseWidestLeadingField(t *testing.T) {
	got, err := New(MinutesMillis).Parse("999999:59.999")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if want := 999999*60 + 59.999; got != want {
		t.Errorf("want %v, got %v", want, got)
	}
	if _, err := New(HoursCentis).Parse("99999:59:59.99"); err != nil {
		t.Errorf("hh:mm:ss.cc widest: %v", err)
	}
}

func TestParseLayout(t *testing.T) {
	if l, err := ParseLayout(""); err != nil || l != MinutesMillis {
		t.Errorf("empty: got %v, %v", l, err)
	}
	if l, err := ParseLayout("hh:mm:ss.cc"); err != nil || l != HoursCentis {
		t.Errorf("hh:mm:ss.cc: got %v, %v", l, err)
	}
	if _, err := ParseLayout("srt"); err == nil {
		t.Error("expected error for unknown layout")
	}
}

// Feature: tsync, Property 1: parse(format(t)) == t at the layout's resolution
func TestRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		layout := rapid.SampledFrom([]Layout{MinutesMillis, HoursCentis}).Draw(t, "layout")
		c := New(layout)
		per := int64(1000)
		if layout == HoursCentis {
			per = 100
		}
		// Up to 99 hours.
		units := rapid.Int64Range(0, 99*3600*per).Draw(t, "units")
		want := float64(units) / float64(per)

		text := c.Format(want)
		got, err := c.Parse(text)
		if err != nil {
			t.Fatalf("Parse(%q): %v", text, err)
		}
		if got != want {
			t.Fatalf("round trip of %v via %q gave %v", want, text, got)
		}
	})
}

// Feature: tsync, Property 2: formatting truncates to the resolution
func TestFormatTruncates(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := New(rapid.SampledFrom([]Layout{MinutesMillis, HoursCentis}).Draw(t, "layout"))
		secs := rapid.Float64Range(0, 360000).Draw(t, "secs")

		got, err := c.Parse(c.Format(secs))
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if got > secs+1e-6 {
			t.Fatalf("formatted value %v exceeds input %v", got, secs)
		}
		if secs-got >= c.Resolution()+1e-6 {
			t.Fatalf("formatted value %v lost more than one step of %v", got, secs)
		}
	})
}
