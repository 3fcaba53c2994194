// Package feed renders a topic as an RSS 2.0 podcast feed.
package feed

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/alnah/lingocast/internal/content"
)

// ContentType is the media type of rendered feeds.
const ContentType = "application/rss+xml; charset=utf-8"

// RSS is the document root.
type RSS struct {
	XMLName xml.Name `xml:"rss"`
	Version string   `xml:"version,attr"`
	Channel Channel  `xml:"channel"`
}

// Channel describes one topic.
type Channel struct {
	Title         string `xml:"title"`
	Link          string `xml:"link"`
	Description   string `xml:"description"`
	Language      string `xml:"language,omitempty"`
	LastBuildDate string `xml:"lastBuildDate,omitempty"`
	Items         []Item `xml:"item"`
}

// Item is one text of the topic.
type Item struct {
	Title       string    `xml:"title"`
	Description string    `xml:"description,omitempty"`
	GUID        GUID      `xml:"guid"`
	Enclosure   Enclosure `xml:"enclosure"`
}

// GUID identifies an item independently of its URL.
type GUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// Enclosure points at the item's audio.
type Enclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

// Options tunes a feed.
type Options struct {
	// BaseURL is the public origin, e.g. "https://cast.example.com".
	BaseURL string
	// Language is the channel language code. Defaults to "de".
	Language string
	// Sizes maps text ids to known audio sizes in bytes.
	Sizes map[string]int64
	// Now stamps lastBuildDate. Zero omits it.
	Now time.Time
}

// EpisodePath returns the URL path of a text's audio.
func EpisodePath(topicID, textID string) string {
	return "/podcast/topic/" + url.PathEscape(topicID) + "/" + url.PathEscape(textID) + ".mp3"
}

// FeedPath returns the URL path of a topic's feed.
func FeedPath(topicID string) string {
	return "/podcast/topic/" + url.PathEscape(topicID) + "/feed.xml"
}

// Build returns the feed of topic, one item per text in topic order.
func Build(topic content.Topic, opts Options) RSS {
	base := strings.TrimRight(opts.BaseURL, "/")
	lang := opts.Language
	if lang == "" {
		lang = "de"
	}

	ch := Channel{
		Title:       topic.Title,
		Link:        base + FeedPath(topic.ID),
		Description: topic.Description,
		Language:    lang,
		Items:       make([]Item, 0, len(topic.Texts)),
	}
	if ch.Description == "" {
		ch.Description = topic.Title
	}
	if !opts.Now.IsZero() {
		ch.LastBuildDate = opts.Now.UTC().Format(time.RFC1123Z)
	}

	for _, text := range topic.Texts {
		ch.Items = append(ch.Items, Item{
			Title:       text.Title,
			Description: firstParagraph(text),
			GUID:        GUID{Value: topic.ID + "/" + text.ID},
			Enclosure: Enclosure{
				URL:    base + EpisodePath(topic.ID, text.ID),
				Length: opts.Sizes[text.ID],
				Type:   "audio/mpeg",
			},
		})
	}
	return RSS{Version: "2.0", Channel: ch}
}

func firstParagraph(text content.Text) string {
	if len(text.Content) == 0 {
		return ""
	}
	return text.Content[0]
}

// Write encodes the feed as indented XML with a declaration.
func Write(w io.Writer, rss RSS) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("write feed: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(rss); err != nil {
		return fmt.Errorf("encode feed: %w", err)
	}
	return enc.Close()
}
