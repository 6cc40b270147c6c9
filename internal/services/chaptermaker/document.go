package chaptermaker

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Chapter is a single chapter marker.
type Chapter struct {
	Timestamp string `json:"timestamp"`
	Title     string `json:"title"`
}

// Document is the parsed chapter tool output.
type Document struct {
	Chapters        []Chapter
	SuggestedTitles []string
}

// rawDocument matches the tool's JSON. Older tool versions emitted chapters
// as one newline-separated string instead of a list, so the field stays raw
// until ParseDocument decides which form it got.
type rawDocument struct {
	Chapters        json.RawMessage `json:"chapters"`
	SuggestedTitles []string        `json:"suggested_titles"`
}

// LoadDocument reads and parses a chapter document from disk.
func LoadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read chapter document: %w", err)
	}
	return ParseDocument(data)
}

// ParseDocument decodes chapter tool output. Both the structured chapter
// list and the legacy newline-separated string form are accepted.
func ParseDocument(data []byte) (Document, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return Document{}, fmt.Errorf("parse chapter document: %w", err)
	}

	doc := Document{}
	for _, title := range raw.SuggestedTitles {
		if trimmed := strings.TrimSpace(title); trimmed != "" {
			doc.SuggestedTitles = append(doc.SuggestedTitles, trimmed)
		}
	}

	if len(raw.Chapters) == 0 {
		return doc, nil
	}

	var structured []Chapter
	if err := json.Unmarshal(raw.Chapters, &structured); err == nil {
		for _, chapter := range structured {
			chapter.Timestamp = strings.TrimSpace(chapter.Timestamp)
			chapter.Title = strings.TrimSpace(chapter.Title)
			if chapter.Timestamp == "" && chapter.Title == "" {
				continue
			}
			doc.Chapters = append(doc.Chapters, chapter)
		}
		return doc, nil
	}

	var legacy string
	if err := json.Unmarshal(raw.Chapters, &legacy); err != nil {
		return Document{}, fmt.Errorf("parse chapter document: chapters is neither list nor string")
	}
	doc.Chapters = parseLegacyChapters(legacy)
	return doc, nil
}

// parseLegacyChapters splits "MM:SS Title" lines into chapter markers.
func parseLegacyChapters(raw string) []Chapter {
	var chapters []Chapter
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		timestamp, title, found := strings.Cut(line, " ")
		if !found {
			chapters = append(chapters, Chapter{Timestamp: line})
			continue
		}
		chapters = append(chapters, Chapter{
			Timestamp: strings.TrimSpace(timestamp),
			Title:     strings.TrimSpace(title),
		})
	}
	return chapters
}

// Markers renders the chapters as "MM:SS Title" lines, the form YouTube
// descriptions use for chapter navigation.
func (d Document) Markers() []string {
	markers := make([]string, 0, len(d.Chapters))
	for _, chapter := range d.Chapters {
		if chapter.Timestamp == "" {
			continue
		}
		if chapter.Title == "" {
			markers = append(markers, chapter.Timestamp)
			continue
		}
		markers = append(markers, chapter.Timestamp+" "+chapter.Title)
	}
	return markers
}
