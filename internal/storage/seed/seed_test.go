package seed

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/videre-project/asi-worker/internal/storage/models"
)

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.json")

	records := []Record{
		{Format: "modern", Archetype: "Mono Red", Card1: "Bolt", Card2: "Goblin", K1: 4, K2: 4},
		{Format: "modern", Archetype: "Azorius Control", Card1: "Counter", Card2: "Island", K1: 4, K2: 12},
	}
	data, err := json.Marshal(records)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	if _, err := LoadFile("/nonexistent/seed.json"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFile_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

type fakeWriter struct {
	calls map[string][]models.BigramRecord
	err   error
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{calls: make(map[string][]models.BigramRecord)}
}

func (f *fakeWriter) ReplaceFormat(_ context.Context, format string, records []models.BigramRecord) error {
	if f.err != nil {
		return f.err
	}
	f.calls[format] = records
	return nil
}

func TestApply_GroupsByFormat(t *testing.T) {
	w := newFakeWriter()
	records := []Record{
		{Format: "modern", Archetype: "Mono Red", Card1: "Bolt", Card2: "Goblin", K1: 4, K2: 4},
		{Format: "modern", Archetype: "Azorius Control", Card1: "Counter", Card2: "Island", K1: 4, K2: 12},
		{Format: "pioneer", Archetype: "Mono Red", Card1: "Bolt", Card2: "Goblin", K1: 4, K2: 4},
	}

	if err := Apply(context.Background(), w, records); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if len(w.calls["modern"]) != 2 {
		t.Errorf("expected 2 modern records, got %d", len(w.calls["modern"]))
	}
	if len(w.calls["pioneer"]) != 1 {
		t.Errorf("expected 1 pioneer record, got %d", len(w.calls["pioneer"]))
	}
}

func TestApply_PropagatesWriterError(t *testing.T) {
	w := newFakeWriter()
	w.err = context.DeadlineExceeded

	records := []Record{{Format: "modern", Archetype: "Mono Red", Card1: "A", Card2: "B", K1: 1, K2: 1}}
	if err := Apply(context.Background(), w, records); err == nil {
		t.Error("expected Apply to propagate writer error")
	}
}
