package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/lectern/internal/analysis"
	"github.com/MikeSquared-Agency/lectern/internal/extractor"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryCache()

	if _, ok := m.Get(ctx, "missing"); ok {
		t.Error("expected miss on empty cache")
	}
	if err := m.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if v, ok := m.Get(ctx, "k"); !ok || string(v) != "v" {
		t.Errorf("expected hit, got %q %v", v, ok)
	}

	_ = m.Set(ctx, "short", []byte("x"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	if _, ok := m.Get(ctx, "short"); ok {
		t.Error("expired entry should miss")
	}
}

func TestNew_FallsBackToMemory(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"invalid", "::not a url::"},
		{"unreachable", "redis://127.0.0.1:1/0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := New(ctx, tt.url, discardLogger()).(*MemoryCache); !ok {
				t.Errorf("expected memory cache for %q", tt.url)
			}
		})
	}
}

func TestContentHash(t *testing.T) {
	segs := []extractor.Segment{{Start: 0, End: 1, Text: "hola"}}

	a := ContentHash("hola", segs, "Clase 1")
	if len(a) != 64 {
		t.Fatalf("expected hex sha256, got %q", a)
	}
	if a != ContentHash("hola", segs, "Clase 1") {
		t.Error("hash must be stable")
	}
	if a == ContentHash("hola", segs, "Clase 2") {
		t.Error("lesson name changes the lesson type and must change the hash")
	}
	if a == ContentHash("hola", []extractor.Segment{{Start: 1, End: 2, Text: "hola"}}, "Clase 1") {
		t.Error("segment timing must change the hash")
	}
}

func TestReports(t *testing.T) {
	ctx := context.Background()
	r := NewReports(NewMemoryCache(), time.Minute)

	if _, ok := r.Get(ctx, "abc"); ok {
		t.Fatal("expected miss")
	}

	rep := &analysis.Report{
		GoldenPoints: []extractor.GoldenPoint{{Text: "Es fundamental que uses stop loss.", Timestamp: "00:00:40", Importance: 5, Category: "critical_insight"}},
		Summary:      analysis.Summary{TotalGoldenPoints: 1, LessonType: analysis.LessonPractical},
	}
	if err := r.Put(ctx, "abc", rep); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok := r.Get(ctx, "abc")
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Summary.LessonType != analysis.LessonPractical || len(got.GoldenPoints) != 1 {
		t.Errorf("unexpected cached report %+v", got)
	}
	if err := r.Put(ctx, "nil", nil); err == nil {
		t.Error("expected error for nil report")
	}
}

func TestReports_CorruptEntryMisses(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryCache()
	_ = m.Set(ctx, keyPrefix+"bad", []byte("{not json"), 0)
	if _, ok := NewReports(m, 0).Get(ctx, "bad"); ok {
		t.Error("corrupt entry should miss")
	}
}
