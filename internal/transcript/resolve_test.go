package transcript

import (
	"testing"

	"pgregory.net/rapid"
)

func TestResolveScenario(t *testing.T) {
	segs := twoSegments().Segments
	cases := []struct {
		at     float64
		want   int
		wantOK bool
	}{
		{1.0, 0, true},
		{2.9, 1, true},
		{10.0, -1, false},
		{0.5, 0, true}, // closed interval: both bounds included
		{2.0, 0, true},
		{2.1, -1, false}, // gap between segments
	}
	for _, tc := range cases {
		got, ok := Resolve(tc.at, segs)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("Resolve(%v): want (%d, %v), got (%d, %v)", tc.at, tc.want, tc.wantOK, got, ok)
		}
	}
}

func TestResolveEmpty(t *testing.T) {
	if _, ok := Resolve(1, nil); ok {
		t.Error("empty timeline resolved a segment")
	}
}

// Feature: tsync, Property 5: the lowest-indexed containing segment wins
func TestResolveFirstMatchWins(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 10).Draw(t, "n")
		segs := make([]Segment, n)
		for i := range segs {
			start := rapid.Float64Range(0, 50).Draw(t, "start")
			length := rapid.Float64Range(0.001, 20).Draw(t, "length")
			segs[i] = Segment{ID: i, Start: start, End: start + length, Payload: SingleText("")}
		}
		at := rapid.Float64Range(0, 80).Draw(t, "at")

		got, ok := Resolve(at, segs)

		want := -1
		for i, s := range segs {
			if at >= s.Start && at <= s.End {
				want = i
				break
			}
		}
		if want == -1 {
			if ok {
				t.Fatalf("resolved %d for %v, no segment contains it", got, at)
			}
			return
		}
		if !ok || got != want {
			t.Fatalf("want %d, got (%d, %v)", want, got, ok)
		}
		for j := 0; j < got; j++ {
			if segs[j].Contains(at) {
				t.Fatalf("segment %d also contains %v but %d was returned", j, at, got)
			}
		}
	})
}

func TestResolveOverlapOrderIndependent(t *testing.T) {
	a := Segment{ID: 1, Start: 1, End: 5, Payload: SingleText("a")}
	b := Segment{ID: 2, Start: 3, End: 8, Payload: SingleText("b")}

	if got, _ := Resolve(4, []Segment{a, b}); got != 0 {
		t.Errorf("a,b: want 0, got %d", got)
	}
	if got, _ := Resolve(4, []Segment{b, a}); got != 0 {
		t.Errorf("b,a: want 0, got %d", got)
	}
}
