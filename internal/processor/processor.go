package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/lectern/internal/analysis"
	"github.com/MikeSquared-Agency/lectern/internal/cache"
	"github.com/MikeSquared-Agency/lectern/internal/extractor"
	"github.com/MikeSquared-Agency/lectern/internal/hermes"
	"github.com/MikeSquared-Agency/lectern/internal/research"
	"github.com/MikeSquared-Agency/lectern/internal/slack"
	"github.com/MikeSquared-Agency/lectern/internal/store"
	"github.com/MikeSquared-Agency/lectern/internal/transcript"
)

var (
	ErrNoTranscriptDir = errors.New("transcript_path given but no transcript directory configured")
	ErrPathOutsideDir  = errors.New("transcript path escapes transcript directory")
)

// Store persists analyses. A nil Store disables persistence.
type Store interface {
	SaveAnalysis(ctx context.Context, ref store.LessonRef, r *analysis.Report) (uuid.UUID, error)
	LatestByContentHash(ctx context.Context, hash string) (*store.AnalysisRow, error)
}

// Publisher is the subset of the hermes client the pipeline publishes through.
type Publisher interface {
	Publish(subject string, data any) error
}

// Notifier posts lesson digests to chat. A nil Notifier disables posting.
type Notifier interface {
	PostLessonDigest(ctx context.Context, lessonName string, r *analysis.Report) (string, error)
	PostThread(ctx context.Context, threadTS, text string) error
}

// Request is one transcript to analyze.
type Request struct {
	LessonID   string
	LessonName string
	Text       string
	Segments   []extractor.Segment
}

// Result is an analysis together with its identity.
type Result struct {
	AnalysisID string
	Report     *analysis.Report
	Cached     bool
}

// Processor orchestrates lectern's transcript analysis pipeline.
type Processor struct {
	analyzer      *analysis.Analyzer
	reports       *cache.Reports
	store         Store
	bus           Publisher
	research      *research.Publisher
	notifier      Notifier
	transcriptDir string
	logger        *slog.Logger
}

func New(a *analysis.Analyzer, reports *cache.Reports, s Store, bus Publisher, n Notifier, transcriptDir string, logger *slog.Logger) *Processor {
	p := &Processor{
		analyzer:      a,
		reports:       reports,
		store:         s,
		bus:           bus,
		notifier:      n,
		transcriptDir: transcriptDir,
		logger:        logger,
	}
	if bus != nil {
		p.research = research.NewPublisher(bus)
	}
	return p
}

// HandleTranscriptStored is the NATS handler for swarm.lesson.transcript.stored.
func (p *Processor) HandleTranscriptStored(subject string, data []byte) {
	ctx := context.Background()

	var evt hermes.TranscriptEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		p.logger.Error("failed to parse transcript event", "error", err)
		return
	}
	if err := evt.Validate(); err != nil {
		p.logger.Error("invalid transcript event", "lesson_id", evt.LessonID, "error", err)
		return
	}

	req, err := p.loadRequest(evt)
	if err != nil {
		p.logger.Error("failed to load transcript", "lesson_id", evt.LessonID, "path", evt.TranscriptPath, "error", err)
		return
	}

	p.logger.Info("processing transcript",
		"lesson_id", req.LessonID,
		"lesson", req.LessonName,
		"segments", len(req.Segments),
	)

	res, err := p.Analyze(ctx, req)
	if err != nil {
		p.logger.Error("analysis failed", "lesson_id", req.LessonID, "error", err)
		return
	}

	p.announce(ctx, req, res)

	p.logger.Info("transcript processed",
		"lesson_id", req.LessonID,
		"analysis_id", res.AnalysisID,
		"golden_points", len(res.Report.GoldenPoints),
		"concepts", len(res.Report.TradingConcepts),
		"cached", res.Cached,
	)
}

// Analyze returns the analysis for a transcript, reusing a cached or stored
// report when the same content was analyzed before.
func (p *Processor) Analyze(ctx context.Context, req Request) (*Result, error) {
	name := req.LessonName
	if name == "" {
		name = req.LessonID
	}
	hash := cache.ContentHash(req.Text, req.Segments, name)

	if res, ok := p.lookup(ctx, hash); ok {
		return res, nil
	}

	rep, err := p.analyzer.Analyze(req.Text, req.Segments, analysis.AnalyzeOpts{LessonName: name})
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	id := uuid.New()
	if p.store != nil {
		id, err = p.store.SaveAnalysis(ctx, store.LessonRef{
			LessonID:    req.LessonID,
			LessonName:  name,
			ContentHash: hash,
		}, rep)
		if err != nil {
			return nil, fmt.Errorf("persist analysis: %w", err)
		}
	}

	if p.reports != nil {
		if err := p.reports.Put(ctx, hash, rep); err != nil {
			p.logger.Warn("failed to cache analysis", "hash", hash, "error", err)
		}
	}

	return &Result{AnalysisID: id.String(), Report: rep}, nil
}

func (p *Processor) lookup(ctx context.Context, hash string) (*Result, bool) {
	var id string
	var rep *analysis.Report

	if p.reports != nil {
		if cached, ok := p.reports.Get(ctx, hash); ok {
			rep = cached
		}
	}

	if p.store != nil {
		row, err := p.store.LatestByContentHash(ctx, hash)
		switch {
		case err == nil:
			id = row.ID.String()
			if rep == nil {
				rep = row.Report
				if p.reports != nil {
					if err := p.reports.Put(ctx, hash, rep); err != nil {
						p.logger.Warn("failed to cache analysis", "hash", hash, "error", err)
					}
				}
			}
		case errors.Is(err, store.ErrNotFound):
			// A cached report without a stored row is analyzed again so it gets an ID.
			return nil, false
		default:
			p.logger.Warn("stored analysis lookup failed", "hash", hash, "error", err)
			return nil, false
		}
	}

	if rep == nil {
		return nil, false
	}
	if id == "" {
		id = uuid.NewString()
	}
	return &Result{AnalysisID: id, Report: rep, Cached: true}, true
}

// announce publishes the completion event and, for fresh analyses, research
// proposals and the Slack digest.
func (p *Processor) announce(ctx context.Context, req Request, res *Result) {
	rep := res.Report
	if p.bus != nil {
		evt := hermes.AnalysisCompleted{
			AnalysisID:      res.AnalysisID,
			LessonID:        req.LessonID,
			LessonName:      req.LessonName,
			GoldenPoints:    len(rep.GoldenPoints),
			Concepts:        len(rep.TradingConcepts),
			LessonType:      rep.Summary.LessonType,
			ComplexityScore: rep.Summary.ComplexityScore,
			EngagementScore: rep.Summary.EngagementScore,
			Cached:          res.Cached,
			Timestamp:       time.Now().UTC(),
		}
		if err := p.bus.Publish(hermes.SubjectAnalysisCompleted, evt); err != nil {
			p.logger.Error("failed to publish analysis completed", "analysis_id", res.AnalysisID, "error", err)
		}
	}

	if res.Cached {
		return
	}

	if p.research != nil {
		sent, err := p.research.PublishProposal(res.AnalysisID, req.LessonID, req.LessonName, rep.ResearchTopics)
		if err != nil {
			p.logger.Error("failed to publish research proposal", "analysis_id", res.AnalysisID, "error", err)
		} else if sent {
			p.logger.Info("research proposal published", "analysis_id", res.AnalysisID)
		}
	}

	if p.notifier != nil {
		ts, err := p.notifier.PostLessonDigest(ctx, req.LessonName, rep)
		if err != nil {
			p.logger.Error("slack digest failed", "analysis_id", res.AnalysisID, "error", err)
			return
		}
		if len(rep.ResearchTopics) > 0 {
			if err := p.notifier.PostThread(ctx, ts, slack.FormatResearchThread(rep.ResearchTopics)); err != nil {
				p.logger.Error("slack research thread failed", "analysis_id", res.AnalysisID, "error", err)
			}
		}
	}
}

func (p *Processor) loadRequest(evt hermes.TranscriptEvent) (Request, error) {
	req := Request{
		LessonID:   evt.LessonID,
		LessonName: evt.LessonName,
	}
	if req.LessonName == "" {
		req.LessonName = evt.LessonID
	}

	if evt.Transcript != "" {
		req.Text = evt.Transcript
		req.Segments = make([]extractor.Segment, len(evt.Segments))
		for i, s := range evt.Segments {
			req.Segments[i] = extractor.Segment{Start: s.Start, End: s.End, Text: s.Text}
		}
		return req, nil
	}

	path, err := p.resolvePath(evt.TranscriptPath)
	if err != nil {
		return req, err
	}
	doc, err := transcript.LoadFile(path)
	if err != nil {
		return req, fmt.Errorf("load transcript file: %w", err)
	}
	req.Text = doc.Text
	req.Segments = doc.Segments
	return req, nil
}

// resolvePath confines an event-supplied path to the transcript directory.
func (p *Processor) resolvePath(rel string) (string, error) {
	if p.transcriptDir == "" {
		return "", ErrNoTranscriptDir
	}
	base := filepath.Clean(p.transcriptDir)
	full := filepath.Join(base, rel)
	r, err := filepath.Rel(base, full)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathOutsideDir, rel)
	}
	return full, nil
}
