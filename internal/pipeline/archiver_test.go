package pipeline

import (
	"context"
	"encoding/csv"
	"io"
	"strings"
	"testing"

	"github.com/alanyoungcy/polymirror/internal/domain"
)

type fakeBlobWriter struct {
	paths        []string
	bodies       []string
	contentTypes []string
	multipart    int
}

func (w *fakeBlobWriter) Put(_ context.Context, path string, data io.Reader, contentType string) error {
	body, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	w.paths = append(w.paths, path)
	w.bodies = append(w.bodies, string(body))
	w.contentTypes = append(w.contentTypes, contentType)
	return nil
}

func (w *fakeBlobWriter) PutMultipart(_ context.Context, path string, data io.Reader, _ int64) error {
	if _, err := io.Copy(io.Discard, data); err != nil {
		return err
	}
	w.multipart++
	w.paths = append(w.paths, path)
	return nil
}

func TestArchiveWritesCSV(t *testing.T) {
	writer := &fakeBlobWriter{}
	a := NewFillArchiver(writer, testLogger())

	fills := []domain.RawFill{
		targetFill("0xaaa", 1_700_000_000),
		targetFill("0xbbb", 1_700_000_001),
	}
	if err := a.Archive(context.Background(), fills); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	if len(writer.paths) != 1 {
		t.Fatalf("uploads = %d, want 1", len(writer.paths))
	}
	if writer.multipart != 0 {
		t.Errorf("multipart uploads = %d, want 0 for a small batch", writer.multipart)
	}
	if !strings.HasPrefix(writer.paths[0], "fills/orderFilled/") || !strings.HasSuffix(writer.paths[0], ".csv") {
		t.Errorf("path = %q, want fills/orderFilled/*.csv", writer.paths[0])
	}
	if writer.contentTypes[0] != "text/csv" {
		t.Errorf("content type = %q, want text/csv", writer.contentTypes[0])
	}

	records, err := csv.NewReader(strings.NewReader(writer.bodies[0])).ReadAll()
	if err != nil {
		t.Fatalf("parse CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("rows = %d, want header + 2 fills", len(records))
	}
	if records[0][0] != "timestamp" {
		t.Errorf("header starts with %q, want timestamp", records[0][0])
	}
	if got := records[1][9]; got != "0xaaa" {
		t.Errorf("first row tx hash = %q, want 0xaaa", got)
	}
}

func TestArchiveSkipsEmptyBatch(t *testing.T) {
	writer := &fakeBlobWriter{}
	a := NewFillArchiver(writer, testLogger())

	if err := a.Archive(context.Background(), nil); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if len(writer.paths) != 0 {
		t.Errorf("uploads = %d, want 0 for an empty batch", len(writer.paths))
	}
}
