// Package chapter derives chapter boundaries from the ordered segments that
// make up an episode.
package chapter

import "fmt"

// Kind identifies the role of a segment within one selection's group.
type Kind int

// Segment kinds, in emission order.
const (
	Intro Kind = iota
	PauseAfterIntro
	Cue
	PauseAfterCue
	Content
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Intro:
		return "intro"
	case PauseAfterIntro:
		return "pause-after-intro"
	case Cue:
		return "cue"
	case PauseAfterCue:
		return "pause-after-cue"
	case Content:
		return "content"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Order lists the kinds in the order a group's segments are emitted.
var Order = [...]Kind{Intro, PauseAfterIntro, Cue, PauseAfterCue, Content}

// Segment is one audio file of the final episode.
// Duration is in milliseconds.
type Segment struct {
	Kind     Kind
	Path     string
	Duration int64
}

// Group is the run of segments produced for one selection.
type Group struct {
	Title    string
	Segments []Segment
}

// Duration returns the summed duration of the group's segments.
func (g Group) Duration() int64 {
	var total int64
	for _, s := range g.Segments {
		total += s.Duration
	}
	return total
}

// Info is a chapter boundary in milliseconds from the start of the episode.
type Info struct {
	Title   string
	StartMs int64
	EndMs   int64
}

// Compute folds groups into one chapter each.
// A chapter spans its whole group, so consecutive chapters share a boundary.
// Negative segment durations are treated as zero to keep StartMs <= EndMs.
func Compute(groups []Group) []Info {
	chapters := make([]Info, 0, len(groups))
	var offset int64
	for _, g := range groups {
		start := offset
		for _, s := range g.Segments {
			offset += max(s.Duration, 0)
		}
		chapters = append(chapters, Info{Title: g.Title, StartMs: start, EndMs: offset})
	}
	return chapters
}

// Paths flattens groups into the ordered list of segment files.
func Paths(groups []Group) []string {
	var paths []string
	for _, g := range groups {
		for _, s := range g.Segments {
			paths = append(paths, s.Path)
		}
	}
	return paths
}
