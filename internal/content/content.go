// Package content loads the learning texts that episodes are built from.
package content

import (
	"context"
	"errors"
)

// ErrUnknownTopic indicates no topic has the requested id.
var ErrUnknownTopic = errors.New("unknown topic")

// Text is one readable text within a topic.
type Text struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Content []string `json:"content"`
}

// Topic groups related texts.
type Topic struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Texts       []Text `json:"texts"`
}

// Store provides the current topics.
type Store interface {
	Topics(ctx context.Context) ([]Topic, error)
}

// FindTopic returns the topic with the given id.
func FindTopic(topics []Topic, id string) (Topic, bool) {
	for _, t := range topics {
		if t.ID == id {
			return t, true
		}
	}
	return Topic{}, false
}

// FindText returns the text with the given id within the topic.
func (t Topic) FindText(id string) (Text, bool) {
	for _, tx := range t.Texts {
		if tx.ID == id {
			return tx, true
		}
	}
	return Text{}, false
}

// Lookup resolves a (topic id, text id) reference.
func Lookup(topics []Topic, topicID, textID string) (Topic, Text, bool) {
	topic, ok := FindTopic(topics, topicID)
	if !ok {
		return Topic{}, Text{}, false
	}
	text, ok := topic.FindText(textID)
	if !ok {
		return Topic{}, Text{}, false
	}
	return topic, text, true
}

// StaticStore serves a fixed topic list.
type StaticStore []Topic

// Topics returns the stored topics.
func (s StaticStore) Topics(context.Context) ([]Topic, error) {
	return s, nil
}
