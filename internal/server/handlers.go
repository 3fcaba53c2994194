package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/alnah/lingocast/internal/content"
	"github.com/alnah/lingocast/internal/feed"
	"github.com/alnah/lingocast/internal/podcast"
)

// DownloadName is the attachment name of assembled episodes.
const DownloadName = "lingoflow-podcast.mp3"

type podcastRequest struct {
	Selections []podcast.Selection `json:"selections"`
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) createPodcast(w http.ResponseWriter, r *http.Request) {
	var req podcastRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := s.episodes.AssembleWithChapters(r.Context(), req.Selections)
	if err != nil {
		if errors.Is(err, podcast.ErrNoContentGenerated) {
			writeError(w, http.StatusUnprocessableEntity, "none of the selected texts exist")
			return
		}
		s.logger.Error("podcast assembly failed", "selections", len(req.Selections), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate podcast")
		return
	}

	w.Header().Set("X-Chapter-Count", strconv.Itoa(len(res.Chapters)))
	writeAudio(w, res.Audio, DownloadName)
}

func (s *Server) listTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := s.episodes.Topics(r.Context())
	if err != nil {
		s.logger.Error("topics unavailable", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load topics")
		return
	}
	writeJSON(w, http.StatusOK, topics)
}

func (s *Server) topicFeed(w http.ResponseWriter, r *http.Request) {
	topicID := chi.URLParam(r, "topicID")
	topics, err := s.episodes.Topics(r.Context())
	if err != nil {
		s.logger.Error("topics unavailable", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load topics")
		return
	}
	topic, ok := content.FindTopic(topics, topicID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown topic "+topicID)
		return
	}

	rss := feed.Build(topic, feed.Options{
		BaseURL: s.baseURL(r),
		Sizes:   s.sizes(topic),
		Now:     s.now(),
	})
	w.Header().Set("Content-Type", feed.ContentType)
	w.WriteHeader(http.StatusOK)
	if err := feed.Write(w, rss); err != nil {
		s.logger.Warn("feed write failed", "topic", topicID, "error", err)
	}
}

func (s *Server) topicEpisode(w http.ResponseWriter, r *http.Request) {
	topicID := chi.URLParam(r, "topicID")
	textID, ok := strings.CutSuffix(chi.URLParam(r, "file"), ".mp3")
	if !ok || textID == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	data, err := s.episodes.Episode(r.Context(), topicID, textID)
	if err != nil {
		if errors.Is(err, podcast.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error("episode failed", "topic", topicID, "text", textID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate episode")
		return
	}
	writeAudio(w, data, fmt.Sprintf("%s_%s.mp3", topicID, textID))
}

// baseURL returns the configured public origin, or one derived from r.
func (s *Server) baseURL(r *http.Request) string {
	if s.publicURL != "" {
		return s.publicURL
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// sizes reports the byte size of each cached narration of topic.
func (s *Server) sizes(topic content.Topic) map[string]int64 {
	if s.paths == nil {
		return nil
	}
	sizes := make(map[string]int64, len(topic.Texts))
	for _, text := range topic.Texts {
		if info, err := os.Stat(s.paths.Path(topic.ID, text.ID)); err == nil {
			sizes[text.ID] = info.Size()
		}
	}
	return sizes
}

func writeAudio(w http.ResponseWriter, data []byte, filename string) {
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
