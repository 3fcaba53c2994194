package podcast

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/lingocast/internal/audio"
	"github.com/alnah/lingocast/internal/chapter"
	"github.com/alnah/lingocast/internal/tempfs"
)

// templates are the run-wide cue and pause files, copied per selection.
type templates struct {
	pauseAfterIntro chapter.Segment
	cue             chapter.Segment
	pauseAfterCue   chapter.Segment
}

// makeTemplates generates the three shared files concurrently and probes
// each once.
func (a *Assembler) makeTemplates(ctx context.Context, reg *tempfs.Registry) (templates, error) {
	var tpl templates
	specs := []struct {
		seg  *chapter.Segment
		kind chapter.Kind
		gen  func(ctx context.Context, out string) error
	}{
		{&tpl.pauseAfterIntro, chapter.PauseAfterIntro, func(ctx context.Context, out string) error {
			return a.proc.MakeSilence(ctx, out, audio.PauseAfterIntroSeconds)
		}},
		{&tpl.cue, chapter.Cue, a.proc.MakeCue},
		{&tpl.pauseAfterCue, chapter.PauseAfterCue, func(ctx context.Context, out string) error {
			return a.proc.MakeSilence(ctx, out, audio.PauseAfterCueSeconds)
		}},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range specs {
		path, err := reg.Create("template_" + s.kind.String() + ".mp3")
		if err != nil {
			return templates{}, err
		}
		g.Go(func() error {
			if err := s.gen(gctx, path); err != nil {
				return err
			}
			*s.seg = chapter.Segment{Kind: s.kind, Path: path, Duration: a.proc.Probe(gctx, path)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return templates{}, fmt.Errorf("generate templates: %w", err)
	}
	return tpl, nil
}
