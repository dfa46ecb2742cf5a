package domain

import (
	"strings"
	"time"
)

// Document is a single retrieval candidate handed to the engine by the
// upstream collectors (feeds, social platforms, evergreen institutional
// content). All fields are input data; the engine never mutates a Document.
type Document struct {
	ID          string
	Title       string
	Text        string
	URL         string
	Lang        string // 2-letter code, possibly with region suffix ("it", "en-US"), may be empty
	PublishedAt string // ISO-8601, may be empty
	Source      string
	// PlatformMeta carries free-form upstream metadata. The engine reads
	// "category" (e.g. "surveillance") and "feed" from it.
	PlatformMeta map[string]string
	// Processed is inherited from upstream storage and ignored here.
	Processed bool
}

// Category returns the source category tag, empty if untagged.
func (d Document) Category() string {
	if d.PlatformMeta == nil {
		return ""
	}
	return d.PlatformMeta["category"]
}

// SourceName returns the feed name if present, falling back to the source.
func (d Document) SourceName() string {
	if d.PlatformMeta != nil {
		if feed := strings.TrimSpace(d.PlatformMeta["feed"]); feed != "" {
			return feed
		}
	}
	return strings.TrimSpace(d.Source)
}

// CombinedText returns title and body joined for matching and scoring.
func (d Document) CombinedText() string {
	return strings.TrimSpace(d.Title + " " + d.Text)
}

// LangCode returns the lowercased 2-letter language code without any
// region suffix, empty if the document carries no language tag.
func (d Document) LangCode() string {
	lang := strings.TrimSpace(d.Lang)
	if lang == "" {
		return ""
	}
	if i := strings.IndexByte(lang, '-'); i >= 0 {
		lang = lang[:i]
	}
	return strings.ToLower(lang)
}

// PublishedTime parses the publication timestamp. ok is false when the
// timestamp is absent or unparseable; callers treat that as "unknown age".
func (d Document) PublishedTime() (time.Time, bool) {
	return ParseTimestamp(d.PublishedAt)
}

// ParseTimestamp parses an ISO-8601 timestamp, accepting a bare date as a
// fallback since several upstream feeds omit the time component.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ScoredDocument pairs a candidate with a relevance score. It is ephemeral:
// produced by vector search or lexical ranking, consumed within one call.
type ScoredDocument struct {
	Doc   Document
	Score float64
}
