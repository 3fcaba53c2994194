package chapter_test

import (
	"slices"
	"testing"

	"github.com/alnah/lingocast/internal/chapter"
)

func group(title string, durations ...int64) chapter.Group {
	g := chapter.Group{Title: title}
	for i, d := range durations {
		g.Segments = append(g.Segments, chapter.Segment{
			Kind:     chapter.Order[i%len(chapter.Order)],
			Path:     title + "-" + chapter.Order[i%len(chapter.Order)].String(),
			Duration: d,
		})
	}
	return g
}

// ---------------------------------------------------------------------------
// Compute
// ---------------------------------------------------------------------------

func TestCompute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		groups []chapter.Group
		want   []chapter.Info
	}{
		{
			name: "empty",
			want: []chapter.Info{},
		},
		{
			name:   "single group",
			groups: []chapter.Group{group("Berlin — Intro", 2000, 500, 600, 700, 10000)},
			want:   []chapter.Info{{Title: "Berlin — Intro", StartMs: 0, EndMs: 13800}},
		},
		{
			name: "two groups share boundary",
			groups: []chapter.Group{
				group("A — 1", 1000, 500, 600, 700, 2000),
				group("A — 2", 3000, 500, 600, 700, 4000),
			},
			want: []chapter.Info{
				{Title: "A — 1", StartMs: 0, EndMs: 4800},
				{Title: "A — 2", StartMs: 4800, EndMs: 13600},
			},
		},
		{
			name:   "zero durations",
			groups: []chapter.Group{group("z", 0, 0, 0, 0, 0), group("y", 0, 0, 0, 0, 1)},
			want: []chapter.Info{
				{Title: "z", StartMs: 0, EndMs: 0},
				{Title: "y", StartMs: 0, EndMs: 1},
			},
		},
		{
			name:   "negative duration clamped",
			groups: []chapter.Group{group("n", 100, -50, 100)},
			want:   []chapter.Info{{Title: "n", StartMs: 0, EndMs: 200}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := chapter.Compute(tt.groups)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Compute() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCompute_Invariants(t *testing.T) {
	t.Parallel()

	var groups []chapter.Group
	for i := range 20 {
		d := int64(i * 137 % 5000)
		groups = append(groups, group("g", 3000+d, 500, 600, 700, d))
	}

	chapters := chapter.Compute(groups)
	if len(chapters) != len(groups) {
		t.Fatalf("len(chapters) = %d, want %d", len(chapters), len(groups))
	}
	for k, c := range chapters {
		if c.StartMs > c.EndMs {
			t.Errorf("chapter %d: StartMs %d > EndMs %d", k, c.StartMs, c.EndMs)
		}
		if c.EndMs-c.StartMs != groups[k].Duration() {
			t.Errorf("chapter %d: span %d, want group duration %d", k, c.EndMs-c.StartMs, groups[k].Duration())
		}
		if k > 0 && c.StartMs < chapters[k-1].EndMs {
			t.Errorf("chapter %d starts at %d before previous end %d", k, c.StartMs, chapters[k-1].EndMs)
		}
	}
}

// ---------------------------------------------------------------------------
// Paths / Kind
// ---------------------------------------------------------------------------

func TestPaths(t *testing.T) {
	t.Parallel()

	groups := []chapter.Group{group("a", 1, 1, 1, 1, 1), group("b", 1, 1, 1, 1, 1)}
	got := chapter.Paths(groups)
	want := []string{
		"a-intro", "a-pause-after-intro", "a-cue", "a-pause-after-cue", "a-content",
		"b-intro", "b-pause-after-intro", "b-cue", "b-pause-after-cue", "b-content",
	}
	if !slices.Equal(got, want) {
		t.Errorf("Paths() = %v, want %v", got, want)
	}
}

func TestKind_String(t *testing.T) {
	t.Parallel()

	if got := chapter.Kind(42).String(); got != "kind(42)" {
		t.Errorf("Kind(42).String() = %q, want %q", got, "kind(42)")
	}
	if got := chapter.Content.String(); got != "content" {
		t.Errorf("Content.String() = %q, want %q", got, "content")
	}
}
