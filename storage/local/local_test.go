package local

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestStorage_RoundTrip(t *testing.T) {
	s, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	if err := s.Upload(ctx, "results/vid1/segments.json", strings.NewReader(`[]`)); err != nil {
		t.Fatalf("upload: %v", err)
	}

	ok, err := s.Exists(ctx, "results/vid1/segments.json")
	if err != nil || !ok {
		t.Fatalf("expected object to exist, got ok=%v err=%v", ok, err)
	}

	r, err := s.Download(ctx, "results/vid1/segments.json")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	data, _ := io.ReadAll(r)
	_ = r.Close()
	if string(data) != `[]` {
		t.Errorf("unexpected content %q", data)
	}

	files, err := s.List(ctx, "results/vid1/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}

	if err := s.Delete(ctx, "results/vid1/segments.json"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	ok, _ = s.Exists(ctx, "results/vid1/segments.json")
	if ok {
		t.Error("expected object deleted")
	}
}

func TestStorage_DeleteMissingIsNil(t *testing.T) {
	s, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(context.Background(), "missing.json"); err != nil {
		t.Errorf("expected nil for missing object, got %v", err)
	}
}

func TestStorage_DownloadMissing(t *testing.T) {
	s, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Download(context.Background(), "missing.json"); err == nil {
		t.Error("expected error for missing object")
	}
}
