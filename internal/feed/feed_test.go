package feed_test

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/alnah/lingocast/internal/content"
	"github.com/alnah/lingocast/internal/feed"
)

var berlin = content.Topic{
	ID:          "berlin",
	Title:       "Berlin",
	Description: "Die Hauptstadt.",
	Texts: []content.Text{
		{ID: "intro", Title: "Intro", Content: []string{"Berlin ist groß.", "Zweiter Absatz."}},
		{ID: "die-mauer", Title: "Die Mauer"},
	},
}

func TestBuild(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	rss := feed.Build(berlin, feed.Options{
		BaseURL: "https://cast.example.com/",
		Sizes:   map[string]int64{"intro": 1234},
		Now:     now,
	})

	ch := rss.Channel
	if rss.Version != "2.0" || ch.Title != "Berlin" || ch.Language != "de" {
		t.Errorf("channel = %+v", ch)
	}
	if ch.Link != "https://cast.example.com/podcast/topic/berlin/feed.xml" {
		t.Errorf("Link = %q", ch.Link)
	}
	if ch.LastBuildDate != "Sun, 18 Oct 2026 09:30:00 +0000" {
		t.Errorf("LastBuildDate = %q", ch.LastBuildDate)
	}
	if len(ch.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(ch.Items))
	}

	first := ch.Items[0]
	if first.Enclosure.URL != "https://cast.example.com/podcast/topic/berlin/intro.mp3" {
		t.Errorf("enclosure URL = %q", first.Enclosure.URL)
	}
	if first.Enclosure.Length != 1234 || first.Enclosure.Type != "audio/mpeg" {
		t.Errorf("enclosure = %+v", first.Enclosure)
	}
	if first.GUID.Value != "berlin/intro" || first.GUID.IsPermaLink {
		t.Errorf("guid = %+v", first.GUID)
	}
	if first.Description != "Berlin ist groß." {
		t.Errorf("description = %q", first.Description)
	}
	if ch.Items[1].Enclosure.Length != 0 || ch.Items[1].Description != "" {
		t.Errorf("second item = %+v", ch.Items[1])
	}
}

func TestBuild_DescriptionFallback(t *testing.T) {
	t.Parallel()

	rss := feed.Build(content.Topic{ID: "x", Title: "X"}, feed.Options{})
	if rss.Channel.Description != "X" {
		t.Errorf("Description = %q, want title fallback", rss.Channel.Description)
	}
	if rss.Channel.Items == nil {
		t.Error("Items is nil, want empty slice")
	}
}

func TestWrite(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := feed.Write(&buf, feed.Build(berlin, feed.Options{BaseURL: "http://localhost:8080"})); err != nil {
		t.Fatalf("Write() unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "<?xml") {
		t.Errorf("missing XML declaration: %q", out[:20])
	}
	for _, want := range []string{
		`<rss version="2.0">`,
		`<enclosure url="http://localhost:8080/podcast/topic/berlin/die-mauer.mp3" length="0" type="audio/mpeg"></enclosure>`,
		`<guid isPermaLink="false">berlin/intro</guid>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("feed missing %q", want)
		}
	}

	var decoded feed.RSS
	if err := xml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("feed is not valid XML: %v", err)
	}
	if len(decoded.Channel.Items) != 2 {
		t.Errorf("decoded items = %d, want 2", len(decoded.Channel.Items))
	}
}

func TestPaths_Escaped(t *testing.T) {
	t.Parallel()

	if got := feed.EpisodePath("a b", "c/d"); got != "/podcast/topic/a%20b/c%2Fd.mp3" {
		t.Errorf("EpisodePath() = %q", got)
	}
}
