package podcast

import (
	"context"
	"fmt"
	"strings"

	"github.com/alnah/lingocast/internal/content"
)

// narration returns the full-text audio of a text, from the cache when
// possible. Concurrent requests for the same text share one synthesis.
// A failed cache write is logged; the synthesized audio is still returned.
//
// The shared synthesis is detached from the caller's cancellation, so one
// caller giving up never fails the others waiting on the same text. A caller
// whose ctx ends stops waiting and gets ctx.Err(); the synthesis still
// completes and fills the cache.
func (a *Assembler) narration(ctx context.Context, topic content.Topic, text content.Text) ([]byte, error) {
	if data, ok := a.cache.Get(ctx, topic.ID, text.ID); ok {
		a.logger.Debug("narration cache hit", "topic", topic.ID, "text", text.ID)
		return data, nil
	}

	key := topic.ID + "\x00" + text.ID
	ch := a.flight.DoChan(key, func() (any, error) {
		return a.synthesizeNarration(context.WithoutCancel(ctx), topic, text)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			a.logger.Debug("narration shared with concurrent run", "topic", topic.ID, "text", text.ID)
		}
		return res.Val.([]byte), nil
	}
}

func (a *Assembler) synthesizeNarration(ctx context.Context, topic content.Topic, text content.Text) ([]byte, error) {
	// Another run may have filled the cache while we waited.
	if data, ok := a.cache.Get(ctx, topic.ID, text.ID); ok {
		return data, nil
	}

	ref := topic.ID + "/" + text.ID
	data, err := a.synth.Synthesize(ctx, strings.Join(text.Content, " "))
	if err != nil {
		return nil, fmt.Errorf("%w: narration for %s: %w", ErrSynthesisFailure, ref, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: narration for %s: no audio", ErrSynthesisFailure, ref)
	}

	if err := a.cache.Put(ctx, topic.ID, text.ID, data); err != nil {
		a.logger.Warn("narration not cached", "topic", topic.ID, "text", text.ID, "error", err)
	}
	return data, nil
}

// Episode returns the narration of a single text, synthesizing and caching
// it on a miss.
func (a *Assembler) Episode(ctx context.Context, topicID, textID string) ([]byte, error) {
	topics, err := a.store.Topics(ctx)
	if err != nil {
		return nil, fmt.Errorf("load topics: %w", err)
	}
	topic, text, ok := content.Lookup(topics, topicID, textID)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, topicID, textID)
	}
	return a.narration(ctx, topic, text)
}

// Topics returns the topics of the underlying content store.
func (a *Assembler) Topics(ctx context.Context) ([]content.Topic, error) {
	return a.store.Topics(ctx)
}
