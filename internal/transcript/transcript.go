// Package transcript reads lesson transcripts produced by speech-to-text tools.
package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MikeSquared-Agency/lectern/internal/extractor"
)

// ErrUnsupportedFormat is returned for files that are neither JSON nor SRT/VTT.
var ErrUnsupportedFormat = errors.New("unsupported transcript format")

// Format identifies the file type a transcript was read from.
type Format int

const (
	FormatJSON Format = iota
	FormatSRT
)

func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "srt"
}

// Document is a transcript ready for analysis.
type Document struct {
	Text     string              `json:"text"`
	Language string              `json:"language,omitempty"`
	Segments []extractor.Segment `json:"segments"`
	Format   Format              `json:"-"`
}

// whisperSegment tolerates null or missing fields.
type whisperSegment struct {
	ID    *int     `json:"id"`
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
	Text  string   `json:"text"`
}

type whisperDoc struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Segments []whisperSegment `json:"segments"`
}

// ParseJSON decodes a Whisper-style document {text, language, segments}. A
// missing text is rebuilt from the segments.
func ParseJSON(data []byte) (*Document, error) {
	var raw whisperDoc
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse transcript json: %w", err)
	}

	doc := &Document{
		Text:     strings.TrimSpace(raw.Text),
		Language: raw.Language,
		Segments: make([]extractor.Segment, 0, len(raw.Segments)),
		Format:   FormatJSON,
	}
	for _, s := range raw.Segments {
		seg := extractor.Segment{Text: strings.TrimSpace(s.Text)}
		if s.Start != nil {
			seg.Start = *s.Start
		}
		if s.End != nil {
			seg.End = *s.End
		}
		doc.Segments = append(doc.Segments, seg)
	}
	if doc.Text == "" {
		doc.Text = joinSegments(doc.Segments)
	}
	return doc, nil
}

// LoadFile reads a transcript, choosing the parser by file extension.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(data)
	case ".srt", ".vtt":
		return ParseSRT(string(data)), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
}

// Supported reports whether LoadFile can read the file.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".srt", ".vtt":
		return true
	}
	return false
}

func joinSegments(segs []extractor.Segment) string {
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		if s.Text != "" {
			parts = append(parts, s.Text)
		}
	}
	return strings.Join(parts, " ")
}
