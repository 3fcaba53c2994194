package content

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Parse reads a topic from markdown.
//
//	# Topic title
//	Description lines...
//	## Text title
//	Paragraph lines...
//	---
//
// Lines are trimmed. "---" separators and blank lines are ignored.
// Non-empty lines before the first "## " form the description.
// ok is false when the document has no "# " title.
func Parse(id, markdown string) (topic Topic, ok bool) {
	topic.ID = id

	var (
		current       *Text
		inDescription = true
		description   []string
	)
	for raw := range strings.SplitSeq(markdown, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, "# "):
			topic.Title = strings.TrimSpace(line[2:])
			inDescription = true
		case strings.HasPrefix(line, "## "):
			inDescription = false
			if current != nil {
				topic.Texts = append(topic.Texts, *current)
			}
			title := strings.TrimSpace(line[3:])
			current = &Text{ID: Slug(title), Title: title, Content: []string{}}
		case line == "---", line == "":
		case inDescription:
			description = append(description, line)
		case current != nil:
			current.Content = append(current.Content, line)
		}
	}
	if current != nil {
		topic.Texts = append(topic.Texts, *current)
	}

	if topic.Title == "" {
		return Topic{}, false
	}
	topic.Description = strings.Join(description, "\n")
	if topic.Texts == nil {
		topic.Texts = []Text{}
	}
	return topic, true
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug derives a text id from its title: lower-cased, with every run of
// characters outside [a-z0-9] replaced by "-". Non-ASCII letters are not
// transliterated, so "Über uns" becomes "-ber-uns".
func Slug(title string) string {
	lower := cases.Lower(language.Und).String(title)
	return nonSlug.ReplaceAllString(lower, "-")
}
