package extractor

import (
	"io"
	"log/slog"
	"testing"

	"github.com/MikeSquared-Agency/lectern/internal/knowledge"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	kb, err := knowledge.Default()
	if err != nil {
		t.Fatalf("knowledge base: %v", err)
	}
	return New(kb, discardLogger())
}

func TestGoldenPoints_CriticalInsight(t *testing.T) {
	e := newTestExtractor(t)
	segs := []Segment{{
		Start: 65,
		End:   80,
		Text:  "Bienvenidos a la clase de hoy. Es muy importante que uses siempre un stop loss en cada operación. Luego seguimos.",
	}}

	points := e.GoldenPoints(segs)
	if len(points) != 1 {
		t.Fatalf("expected 1 golden point, got %d: %+v", len(points), points)
	}
	gp := points[0]
	if gp.Category != "critical_insight" {
		t.Errorf("expected critical_insight, got %s", gp.Category)
	}
	if gp.Text != "Es muy importante que uses siempre un stop loss en cada operación." {
		t.Errorf("unexpected context %q", gp.Text)
	}
	if gp.Timestamp != "00:01:05" {
		t.Errorf("expected 00:01:05, got %s", gp.Timestamp)
	}
	if gp.Importance < 1 || gp.Importance > 5 {
		t.Errorf("importance out of range: %d", gp.Importance)
	}
}

func TestGoldenPoints_Rejections(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		name string
		text string
	}{
		{"short context", "Ojo con eso."},
		{"hedged medium pattern", "Aunque la diferencia entre ambos no es tan grande."},
		{"empty text", "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points := e.GoldenPoints([]Segment{{Text: tt.text}})
			if len(points) != 0 {
				t.Errorf("expected no golden points, got %+v", points)
			}
		})
	}
}

func TestGoldenPoints_DuplicateSuppression(t *testing.T) {
	e := newTestExtractor(t)
	line := "Recordad que la gestión del riesgo decide si sobrevivís en el mercado."
	segs := []Segment{
		{Start: 10, End: 20, Text: line},
		{Start: 300, End: 310, Text: line},
	}

	points := e.GoldenPoints(segs)
	seen := map[string]int{}
	for _, p := range points {
		seen[p.Text]++
	}
	if seen[line] != 1 {
		t.Errorf("expected the repeated statement once, got %d (%+v)", seen[line], points)
	}
	for _, p := range points {
		if p.Timestamp != "00:00:10" {
			t.Errorf("expected only first-seen timestamps, got %s", p.Timestamp)
		}
	}
}

func TestGoldenPoints_Empty(t *testing.T) {
	e := newTestExtractor(t)
	points := e.GoldenPoints(nil)
	if points == nil || len(points) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", points)
	}
}

func TestCodeReferences(t *testing.T) {
	e := newTestExtractor(t)
	segs := []Segment{
		{Start: 0, Text: "Vamos a programar la estrategia en EasyLanguage"},
		{Start: 40, Text: "Vamos a programar la estrategia en EasyLanguage"},
		{Start: 90, Text: "Descargamos los datos de la API del broker"},
		{Start: 120, Text: "El capital disponible manda"},
	}

	refs := e.CodeReferences(segs)
	platforms := map[string]int{}
	for _, r := range refs {
		platforms[r.Platform]++
		if r.Snippet != nil {
			t.Errorf("snippet should be empty, got %q", *r.Snippet)
		}
	}
	want := map[string]int{"tradestation": 1, "general": 1, "data": 1}
	if len(platforms) != len(want) {
		t.Fatalf("expected platforms %v, got %v", want, platforms)
	}
	for p, n := range want {
		if platforms[p] != n {
			t.Errorf("platform %s: expected %d, got %d", p, n, platforms[p])
		}
	}
	if refs[0].MentionedAt != "00:00:00" {
		t.Errorf("expected first reference at 00:00:00, got %s", refs[0].MentionedAt)
	}
}
