package extractor

import (
	"strings"
	"testing"
)

func TestConcepts_Debounce(t *testing.T) {
	e := newTestExtractor(t)
	segs := []Segment{
		{Start: 0, Text: "Mirad el MACD line ahora"},
		{Start: 9.5, Text: "otra vez el MACD line"},
		{Start: 19.6, Text: "y el MACD line de nuevo"},
		{Start: 29.6, Text: "el MACD line una vez más"},
		{Start: 40, Text: "el MACD line para terminar"},
	}

	concepts := e.Concepts(segs)
	if len(concepts) != 1 {
		t.Fatalf("expected only macd, got %+v", concepts)
	}
	c := concepts[0]
	if c.Key != "macd" || c.Name != "macd" || c.Complexity != 4 {
		t.Errorf("unexpected concept %+v", c)
	}
	want := "00:00:00,00:00:19,00:00:29,00:00:40"
	if got := strings.Join(c.MentionedAt, ","); got != want {
		t.Errorf("mentions = %s, want %s", got, want)
	}
}

func TestConcepts_ContextPatternRequired(t *testing.T) {
	e := newTestExtractor(t)

	if got := e.Concepts([]Segment{{Text: "hablamos del rsi hoy"}}); len(got) != 0 {
		t.Errorf("rsi without supporting context should be discarded, got %+v", got)
	}
	got := e.Concepts([]Segment{{Text: "cuando el rsi por encima de 70 aparece"}})
	if len(got) != 1 || got[0].Key != "rsi" {
		t.Errorf("expected rsi, got %+v", got)
	}
}

func TestConcepts_CommonWordPenalty(t *testing.T) {
	e := newTestExtractor(t)

	// "ma" is a short common word: 0.7 + 0.1 - 0.3 = 0.5, rejected.
	if got := e.Concepts([]Segment{{Text: "la ma cruza hacia arriba"}}); len(got) != 0 {
		t.Errorf("expected rejection, got %+v", got)
	}

	got := e.Concepts([]Segment{{Text: "la media móvil de 20 periodos"}})
	if len(got) != 1 {
		t.Fatalf("expected moving average, got %+v", got)
	}
	if got[0].Name != "ma" || got[0].Category != "indicator" {
		t.Errorf("expected canonical name ma in indicator, got %+v", got[0])
	}
}

func TestConcepts_Ordering(t *testing.T) {
	e := newTestExtractor(t)
	segs := []Segment{
		{Start: 0, Text: "cuando el rsi por encima de 70 aparece"},
		{Start: 20, Text: "mirad el MACD line"},
		{Start: 40, Text: "hacemos scalping en el nasdaq"},
		{Start: 60, Text: "y otra vez el MACD line"},
	}

	concepts := e.Concepts(segs)
	var keys []string
	for _, c := range concepts {
		keys = append(keys, c.Key)
	}
	if got := strings.Join(keys, ","); got != "scalping,macd,rsi" {
		t.Errorf("order = %s, want scalping,macd,rsi", got)
	}
}

func TestConcepts_Empty(t *testing.T) {
	e := newTestExtractor(t)
	if got := e.Concepts(nil); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}
