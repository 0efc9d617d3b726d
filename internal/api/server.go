package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/lectern/internal/analysis"
	"github.com/MikeSquared-Agency/lectern/internal/export"
	"github.com/MikeSquared-Agency/lectern/internal/extractor"
	"github.com/MikeSquared-Agency/lectern/internal/knowledge"
	"github.com/MikeSquared-Agency/lectern/internal/processor"
	"github.com/MikeSquared-Agency/lectern/internal/store"
)

// Version is reported by the status endpoint and the registration event.
const Version = "1.0.0"

// maxBodyBytes bounds an uploaded transcript.
const maxBodyBytes = 8 << 20

// Capabilities lists what the service can do for a lesson.
var Capabilities = []string{
	"golden_point_extraction",
	"trading_concept_identification",
	"code_reference_detection",
	"educational_structure_analysis",
	"academic_research_detection",
	"clip_planning",
}

// statusKeys names knowledge-base categories in the status payload.
var statusKeys = map[string]string{
	knowledge.CategoryIndicator:      "trading_indicators",
	knowledge.CategoryStrategy:       "trading_strategies",
	knowledge.CategoryRiskManagement: "risk_management",
	knowledge.CategoryPlatform:       "platforms_tools",
	knowledge.CategoryAcademic:       "academic_concepts",
}

// AnalysisReader loads stored analyses. A nil reader disables the lookup routes.
type AnalysisReader interface {
	GetAnalysis(ctx context.Context, id uuid.UUID) (*store.AnalysisRow, error)
	ConceptCounts(ctx context.Context) (map[string]int, error)
}

// BusStatus reports event bus connectivity.
type BusStatus interface {
	Connected() bool
}

type Server struct {
	router   *chi.Mux
	port     int
	apiToken string
	kb       *knowledge.Base
	proc     *processor.Processor
	reader   AnalysisReader
	bus      BusStatus
	validate *validator.Validate
	logger   *slog.Logger
	http     *http.Server
}

func NewServer(port int, apiToken string, kb *knowledge.Base, proc *processor.Processor, reader AnalysisReader, bus BusStatus, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:   router,
		port:     port,
		apiToken: apiToken,
		kb:       kb,
		proc:     proc,
		reader:   reader,
		bus:      bus,
		validate: validator.New(),
		logger:   logger,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/lectern/status", s.status)

	router.Route("/api/v1/analyses", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(apiToken))
		r.Post("/", s.createAnalysis)
		r.Get("/concepts", s.conceptCounts)
		r.Get("/{id}", s.getAnalysis)
		r.Get("/{id}/clips", s.getClips)
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("API server starting", "addr", addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting for in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// BearerAuthMiddleware rejects requests without the configured token. An
// empty token disables the check.
func BearerAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	sizes := make(map[string]int, len(statusKeys))
	for cat, n := range s.kb.Sizes() {
		if key, ok := statusKeys[cat]; ok {
			sizes[key] = n
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"agent":          "lectern",
		"status":         "ready",
		"version":        Version,
		"capabilities":   Capabilities,
		"knowledge_base": sizes,
		"persistence":    s.reader != nil,
		"nats_connected": s.bus != nil && s.bus.Connected(),
	})
}

type analyzeRequest struct {
	LessonID   string              `json:"lesson_id"`
	LessonName string              `json:"lesson_name"`
	Text       string              `json:"text" validate:"required"`
	Segments   []extractor.Segment `json:"segments" validate:"required,min=1"`
}

type analyzeResponse struct {
	AnalysisID string           `json:"analysis_id"`
	Cached     bool             `json:"cached"`
	Report     *analysis.Report `json:"report"`
}

func (s *Server) createAnalysis(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid transcript: "+err.Error())
		return
	}

	res, err := s.proc.Analyze(r.Context(), processor.Request{
		LessonID:   req.LessonID,
		LessonName: req.LessonName,
		Text:       req.Text,
		Segments:   req.Segments,
	})
	if err != nil {
		if errors.Is(err, analysis.ErrMalformedInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("analysis request failed", "lesson", req.LessonName, "error", err)
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	code := http.StatusCreated
	if res.Cached {
		code = http.StatusOK
	}
	writeJSON(w, code, analyzeResponse{
		AnalysisID: res.AnalysisID,
		Cached:     res.Cached,
		Report:     res.Report,
	})
}

func (s *Server) conceptCounts(w http.ResponseWriter, r *http.Request) {
	if s.reader == nil {
		writeError(w, http.StatusServiceUnavailable, "persistence not configured")
		return
	}
	counts, err := s.reader.ConceptCounts(r.Context())
	if err != nil {
		s.logger.Error("failed to count concepts", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to count concepts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"concepts": counts})
}

func (s *Server) getAnalysis(w http.ResponseWriter, r *http.Request) {
	row, ok := s.loadAnalysis(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) getClips(w http.ResponseWriter, r *http.Request) {
	row, ok := s.loadAnalysis(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"analysis_id": row.ID,
		"lesson_name": row.LessonName,
		"clips":       export.ClipPlan(row.Report.GoldenPoints),
	})
}

func (s *Server) loadAnalysis(w http.ResponseWriter, r *http.Request) (*store.AnalysisRow, bool) {
	if s.reader == nil {
		writeError(w, http.StatusServiceUnavailable, "persistence not configured")
		return nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid analysis id")
		return nil, false
	}
	row, err := s.reader.GetAnalysis(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "analysis not found")
		return nil, false
	}
	if err != nil {
		s.logger.Error("failed to load analysis", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load analysis")
		return nil, false
	}
	return row, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
