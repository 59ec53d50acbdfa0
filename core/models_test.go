package core

import (
	"testing"
	"time"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "same content produces same ID",
			content: "gutenberg:2701",
		},
		{
			name:    "empty string",
			content: "",
		},
		{
			name:    "long content",
			content: "The Project Gutenberg eBook of Moby Dick; or The Whale, by Herman Melville",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("gutenberg:1342")
	id2 := IDFromContent("gutenberg:1343")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestBookRecordMUS_RoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	record := BookRecord{
		Id:         IDFromContent("gutenberg:2701"),
		SourceId:   "gutenberg:2701",
		Title:      "Moby Dick; or The Whale",
		Vector:     []float32{0.1, 0.2, 0.3},
		TextLength: 1256034,
		InsertedAt: now,
		UpdatedAt:  now,
		Metadata:   map[string]string{"author": "Herman Melville"},
	}

	buf := make([]byte, BookRecordMUS.Size(record))
	n := BookRecordMUS.Marshal(record, buf)
	if n != len(buf) {
		t.Fatalf("Marshal wrote %d bytes, Size reported %d", n, len(buf))
	}

	decoded, n, err := BookRecordMUS.Unmarshal(buf)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if n != len(buf) {
		t.Errorf("Unmarshal consumed %d bytes, expected %d", n, len(buf))
	}
	if decoded.Id != record.Id || decoded.Title != record.Title || decoded.SourceId != record.SourceId {
		t.Errorf("decoded record does not match: %+v vs %+v", decoded, record)
	}
	if !decoded.InsertedAt.Equal(record.InsertedAt) {
		t.Errorf("InsertedAt mismatch: %v vs %v", decoded.InsertedAt, record.InsertedAt)
	}
	if len(decoded.Vector) != len(record.Vector) {
		t.Errorf("Vector length mismatch: %d vs %d", len(decoded.Vector), len(record.Vector))
	}
}

func TestPassageRecordMUS_RoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	record := PassageRecord{
		Id:         42,
		BookId:     IDFromContent("gutenberg:1727"),
		Position:   7,
		Contents:   "Tell me, O muse, of that ingenious hero who travelled far and wide",
		Vector:     []float32{0.5, 0.5},
		InsertedAt: now,
		UpdatedAt:  now,
	}

	buf := make([]byte, PassageRecordMUS.Size(record))
	PassageRecordMUS.Marshal(record, buf)

	decoded, _, err := PassageRecordMUS.Unmarshal(buf)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.BookId != record.BookId || decoded.Position != record.Position {
		t.Errorf("decoded passage does not match: %+v vs %+v", decoded, record)
	}
	if decoded.Contents != record.Contents {
		t.Errorf("Contents mismatch")
	}
}
