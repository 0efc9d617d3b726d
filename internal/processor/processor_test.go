package processor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/lectern/internal/analysis"
	"github.com/MikeSquared-Agency/lectern/internal/cache"
	"github.com/MikeSquared-Agency/lectern/internal/hermes"
	"github.com/MikeSquared-Agency/lectern/internal/knowledge"
	"github.com/MikeSquared-Agency/lectern/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeStore struct {
	mu    sync.Mutex
	rows  map[string]*store.AnalysisRow
	saves int
	err   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]*store.AnalysisRow)}
}

func (f *fakeStore) SaveAnalysis(_ context.Context, ref store.LessonRef, r *analysis.Report) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return uuid.Nil, f.err
	}
	f.saves++
	row := &store.AnalysisRow{
		ID:          uuid.New(),
		LessonID:    ref.LessonID,
		LessonName:  ref.LessonName,
		ContentHash: ref.ContentHash,
		Report:      r,
		CreatedAt:   time.Now(),
	}
	f.rows[ref.ContentHash] = row
	return row.ID, nil
}

func (f *fakeStore) LatestByContentHash(_ context.Context, hash string) (*store.AnalysisRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[hash]
	if !ok {
		return nil, store.ErrNotFound
	}
	return row, nil
}

type recordingBus struct {
	mu       sync.Mutex
	subjects []string
	events   []any
}

func (r *recordingBus) Publish(subject string, data any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects = append(r.subjects, subject)
	r.events = append(r.events, data)
	return nil
}

func (r *recordingBus) count(subject string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.subjects {
		if s == subject {
			n++
		}
	}
	return n
}

type fakeNotifier struct {
	digests []string
	threads []string
	err     error
}

func (f *fakeNotifier) PostLessonDigest(_ context.Context, lessonName string, _ *analysis.Report) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.digests = append(f.digests, lessonName)
	return "1700000000.000100", nil
}

func (f *fakeNotifier) PostThread(_ context.Context, threadTS, text string) error {
	f.threads = append(f.threads, threadTS+"|"+text)
	return nil
}

func newAnalyzer(t *testing.T) *analysis.Analyzer {
	t.Helper()
	kb, err := knowledge.Default()
	if err != nil {
		t.Fatalf("knowledge base: %v", err)
	}
	return analysis.New(kb, discardLogger())
}

func lessonEvent() hermes.TranscriptEvent {
	segs := []hermes.TranscriptSegment{
		{Start: 0, End: 9, Text: "Hoy vamos a hablar del RSI de catorce periodos y de cómo usarlo en TradeStation."},
		{Start: 10, End: 24, Text: "¿Qué pasa cuando el mercado está en sobrecompra?"},
		{Start: 25, End: 39, Text: "Por ejemplo, imagina que el precio toca la banda superior y se gira."},
		{Start: 40, End: 59, Text: "Es fundamental que siempre uses un stop loss para proteger tu capital en cada operación."},
		{Start: 60, End: 75, Text: "El backtesting con datos históricos evita el overfitting si lo haces bien."},
	}
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = s.Text
	}
	return hermes.TranscriptEvent{
		LessonID:   "lesson-3",
		LessonName: "Clase 3 - Práctica RSI",
		Transcript: strings.Join(parts, " "),
		Segments:   segs,
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestHandleTranscriptStored_Inline(t *testing.T) {
	st := newFakeStore()
	bus := &recordingBus{}
	notifier := &fakeNotifier{}
	reports := cache.NewReports(cache.NewMemoryCache(), time.Hour)
	p := New(newAnalyzer(t), reports, st, bus, notifier, "", discardLogger())

	p.HandleTranscriptStored(hermes.SubjectTranscriptStored, mustJSON(t, lessonEvent()))

	if st.saves != 1 {
		t.Fatalf("expected 1 save, got %d", st.saves)
	}
	if bus.count(hermes.SubjectAnalysisCompleted) != 1 {
		t.Fatalf("expected analysis completed event, got %v", bus.subjects)
	}
	if bus.count(hermes.SubjectResearchProposed) != 1 {
		t.Errorf("expected research proposal, got %v", bus.subjects)
	}

	evt, ok := bus.events[0].(hermes.AnalysisCompleted)
	if !ok {
		t.Fatalf("unexpected event type %T", bus.events[0])
	}
	if evt.LessonID != "lesson-3" || evt.Cached {
		t.Errorf("unexpected event %+v", evt)
	}
	if evt.LessonType != analysis.LessonPractical {
		t.Errorf("expected practical lesson, got %s", evt.LessonType)
	}
	if evt.GoldenPoints == 0 || evt.Concepts == 0 {
		t.Errorf("expected findings in event, got %+v", evt)
	}

	if len(notifier.digests) != 1 || notifier.digests[0] != "Clase 3 - Práctica RSI" {
		t.Errorf("unexpected digests %v", notifier.digests)
	}
	if len(notifier.threads) != 1 || !strings.HasPrefix(notifier.threads[0], "1700000000.000100|") {
		t.Errorf("expected research thread under digest, got %v", notifier.threads)
	}
}

func TestHandleTranscriptStored_RepeatUsesCache(t *testing.T) {
	st := newFakeStore()
	bus := &recordingBus{}
	notifier := &fakeNotifier{}
	reports := cache.NewReports(cache.NewMemoryCache(), time.Hour)
	p := New(newAnalyzer(t), reports, st, bus, notifier, "", discardLogger())

	data := mustJSON(t, lessonEvent())
	p.HandleTranscriptStored(hermes.SubjectTranscriptStored, data)
	p.HandleTranscriptStored(hermes.SubjectTranscriptStored, data)

	if st.saves != 1 {
		t.Errorf("repeat transcript should not be stored again, saves=%d", st.saves)
	}
	if bus.count(hermes.SubjectAnalysisCompleted) != 2 {
		t.Errorf("expected two completion events, got %v", bus.subjects)
	}
	if bus.count(hermes.SubjectResearchProposed) != 1 {
		t.Errorf("cached analysis should not propose research again, got %v", bus.subjects)
	}
	if len(notifier.digests) != 1 {
		t.Errorf("cached analysis should not post again, got %v", notifier.digests)
	}

	first := bus.events[0].(hermes.AnalysisCompleted)
	last := bus.events[len(bus.events)-1].(hermes.AnalysisCompleted)
	if !last.Cached {
		t.Error("second event should be marked cached")
	}
	if first.AnalysisID != last.AnalysisID {
		t.Errorf("cached result should reuse stored id: %s vs %s", first.AnalysisID, last.AnalysisID)
	}
}

func TestHandleTranscriptStored_FromFile(t *testing.T) {
	dir := t.TempDir()
	doc := `{"text": "", "language": "es", "segments": [
		{"id": 0, "start": 0, "end": 12, "text": "Es fundamental que siempre uses un stop loss en cada operación."},
		{"id": 1, "start": 13, "end": 30, "text": "El RSI marca sobrecompra por encima de setenta."}
	]}`
	if err := os.MkdirAll(filepath.Join(dir, "curso"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "curso", "clase1.json"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	bus := &recordingBus{}
	p := New(newAnalyzer(t), nil, nil, bus, nil, dir, discardLogger())

	evt := hermes.TranscriptEvent{LessonID: "clase1", TranscriptPath: "curso/clase1.json"}
	p.HandleTranscriptStored(hermes.SubjectTranscriptStored, mustJSON(t, evt))

	if bus.count(hermes.SubjectAnalysisCompleted) != 1 {
		t.Fatalf("expected completion event, got %v", bus.subjects)
	}
	got := bus.events[0].(hermes.AnalysisCompleted)
	if got.LessonName != "clase1" {
		t.Errorf("lesson name should fall back to id, got %q", got.LessonName)
	}
	if _, err := uuid.Parse(got.AnalysisID); err != nil {
		t.Errorf("expected generated uuid, got %q", got.AnalysisID)
	}
}

func TestHandleTranscriptStored_Dropped(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		data []byte
	}{
		{"invalid json", []byte("{not json")},
		{"no transcript", []byte(`{"lesson_id": "x"}`)},
		{"path traversal", []byte(`{"lesson_id": "x", "transcript_path": "../../etc/passwd"}`)},
		{"missing file", []byte(`{"lesson_id": "x", "transcript_path": "nope.json"}`)},
		{"no segments", []byte(`{"lesson_id": "x", "transcript": "texto sin segmentos"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newFakeStore()
			bus := &recordingBus{}
			p := New(newAnalyzer(t), nil, st, bus, nil, dir, discardLogger())

			p.HandleTranscriptStored(hermes.SubjectTranscriptStored, tt.data)

			if st.saves != 0 || len(bus.subjects) != 0 {
				t.Errorf("expected event to be dropped, saves=%d subjects=%v", st.saves, bus.subjects)
			}
		})
	}
}

func TestHandleTranscriptStored_StoreFailure(t *testing.T) {
	st := newFakeStore()
	st.err = errors.New("db down")
	bus := &recordingBus{}
	notifier := &fakeNotifier{}
	p := New(newAnalyzer(t), nil, st, bus, notifier, "", discardLogger())

	p.HandleTranscriptStored(hermes.SubjectTranscriptStored, mustJSON(t, lessonEvent()))

	if len(bus.subjects) != 0 || len(notifier.digests) != 0 {
		t.Errorf("nothing should be announced when persistence fails, got %v %v", bus.subjects, notifier.digests)
	}
}

func TestHandleTranscriptStored_SlackFailureStillPublishes(t *testing.T) {
	bus := &recordingBus{}
	notifier := &fakeNotifier{err: errors.New("slack down")}
	p := New(newAnalyzer(t), nil, nil, bus, notifier, "", discardLogger())

	p.HandleTranscriptStored(hermes.SubjectTranscriptStored, mustJSON(t, lessonEvent()))

	if bus.count(hermes.SubjectAnalysisCompleted) != 1 {
		t.Errorf("expected completion event despite slack failure, got %v", bus.subjects)
	}
	if len(notifier.threads) != 0 {
		t.Errorf("no thread without a digest, got %v", notifier.threads)
	}
}

func TestAnalyze_StoredReportWarmsCache(t *testing.T) {
	st := newFakeStore()
	a := newAnalyzer(t)
	evt := lessonEvent()

	first := New(a, nil, st, nil, nil, "", discardLogger())
	req, err := first.loadRequest(evt)
	if err != nil {
		t.Fatal(err)
	}
	res, err := first.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	mem := cache.NewMemoryCache()
	reports := cache.NewReports(mem, time.Hour)
	second := New(a, reports, st, nil, nil, "", discardLogger())
	again, err := second.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !again.Cached || again.AnalysisID != res.AnalysisID {
		t.Errorf("expected stored result, got %+v", again)
	}
	if st.saves != 1 {
		t.Errorf("expected a single save, got %d", st.saves)
	}

	hash := cache.ContentHash(req.Text, req.Segments, req.LessonName)
	if _, ok := reports.Get(context.Background(), hash); !ok {
		t.Error("stored report should be written back to the cache")
	}
}

func TestResolvePath(t *testing.T) {
	p := New(newAnalyzer(t), nil, nil, nil, nil, "/data/transcripts", discardLogger())

	tests := []struct {
		path    string
		want    string
		wantErr error
	}{
		{"lesson.json", "/data/transcripts/lesson.json", nil},
		{"curso/a/lesson.srt", "/data/transcripts/curso/a/lesson.srt", nil},
		{"/lesson.json", "/data/transcripts/lesson.json", nil},
		{"../secret.json", "", ErrPathOutsideDir},
		{"curso/../../secret.json", "", ErrPathOutsideDir},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := p.resolvePath(tt.path)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("resolvePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}

	empty := New(newAnalyzer(t), nil, nil, nil, nil, "", discardLogger())
	if _, err := empty.resolvePath("x.json"); !errors.Is(err, ErrNoTranscriptDir) {
		t.Errorf("expected ErrNoTranscriptDir, got %v", err)
	}
}
