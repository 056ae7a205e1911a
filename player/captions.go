package player

import (
	"encoding/json"
	"fmt"
	"os"
)

// CaptionEntry is one transcript line with its timing in seconds
type CaptionEntry struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Text     string  `json:"text"`
}

// Transcript resolves captions by playback time with a forward-only
// cursor. Playback indices only move forward, so lookup never rescans
// from the start of the transcript.
type Transcript struct {
	entries []CaptionEntry
	cursor  int
}

// LoadTranscript reads a transcript JSON file: an array of
// {start, duration, text} records ordered by start time.
func LoadTranscript(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	var entries []CaptionEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}
	return NewTranscript(entries), nil
}

// NewTranscript creates a transcript from already-ordered entries
func NewTranscript(entries []CaptionEntry) *Transcript {
	return &Transcript{entries: entries}
}

// CaptionAt returns the caption active at the given playback time, or
// the empty string before the first entry. Times must be queried in
// non-decreasing order.
func (t *Transcript) CaptionAt(seconds float64) string {
	if len(t.entries) == 0 {
		return ""
	}

	for t.cursor+1 < len(t.entries) && t.entries[t.cursor+1].Start <= seconds {
		t.cursor++
	}

	cur := t.entries[t.cursor]
	if seconds < cur.Start {
		return ""
	}
	return cur.Text
}
