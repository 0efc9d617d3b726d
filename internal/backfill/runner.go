package backfill

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/lectern/internal/analysis"
	"github.com/MikeSquared-Agency/lectern/internal/cache"
	"github.com/MikeSquared-Agency/lectern/internal/export"
	"github.com/MikeSquared-Agency/lectern/internal/slack"
	"github.com/MikeSquared-Agency/lectern/internal/store"
	"github.com/MikeSquared-Agency/lectern/internal/transcript"
)

// Export modes.
const (
	ExportNone     = "none"
	ExportNotes    = "notes"
	ExportConcepts = "concepts"
	ExportClips    = "clips"
	ExportBoth     = "both"
	ExportAll      = "all"
)

var ErrUnknownExport = errors.New("unknown export mode")

// Config holds the backfill command configuration.
type Config struct {
	Dir          string
	SingleFile   string // process a single file only
	OutDir       string // exports are written under OutDir/<lesson>/analysis
	Export       string
	LessonName   string // overrides the file-derived name for a single file
	DryRun       bool   // analyze and export but do not persist
	StatePath    string
	SlackToken   string // optional: Slack bot token for posting summaries
	SlackChannel string // optional: Slack channel for summaries
}

// Saver persists finished analyses.
type Saver interface {
	SaveAnalysis(ctx context.Context, ref store.LessonRef, r *analysis.Report) (uuid.UUID, error)
}

// Runner orchestrates the backfill process.
type Runner struct {
	cfg      Config
	store    Saver
	analyzer *analysis.Analyzer
	slack    *slack.Poster
	logger   *slog.Logger
	out      io.Writer
}

// NewRunner creates a backfill runner. s may be nil when persistence is off.
func NewRunner(cfg Config, s Saver, a *analysis.Analyzer, logger *slog.Logger) *Runner {
	r := &Runner{
		cfg:      cfg,
		store:    s,
		analyzer: a,
		logger:   logger,
		out:      os.Stdout,
	}

	if cfg.SlackToken != "" && cfg.SlackChannel != "" {
		r.slack = slack.NewPoster(cfg.SlackToken, cfg.SlackChannel, logger)
	}

	return r
}

// ValidExport reports whether mode is a known export mode.
func ValidExport(mode string) bool {
	switch mode {
	case "", ExportNone, ExportNotes, ExportConcepts, ExportClips, ExportBoth, ExportAll:
		return true
	}
	return false
}

// FileSummary records the outcome of one transcript.
type FileSummary struct {
	Path         string
	Format       string
	LessonType   string
	GoldenPoints int
	Concepts     int
	Errors       int
}

type parsedFile struct {
	path string
	doc  *transcript.Document
	fp   fileFingerprint
}

// Run analyzes every pending transcript, skipping subtitle files that duplicate
// a JSON transcript of the same lesson.
func (r *Runner) Run(ctx context.Context) error {
	if !ValidExport(r.cfg.Export) {
		return fmt.Errorf("%w: %s", ErrUnknownExport, r.cfg.Export)
	}

	state, err := LoadState(r.cfg.StatePath)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	files, err := r.discoverFiles()
	if err != nil {
		return fmt.Errorf("discover files: %w", err)
	}
	r.logger.Info("files discovered", "files", len(files))

	var jsonParsed, srtParsed []parsedFile
	for _, path := range files {
		if state.IsProcessed(path) {
			continue
		}
		doc, err := transcript.LoadFile(path)
		if err != nil {
			r.logger.Warn("failed to parse transcript", "path", path, "error", err)
			state.AddError(fmt.Sprintf("parse %s: %v", path, err))
			continue
		}
		if len(doc.Segments) == 0 {
			r.logger.Info("skipping transcript without segments", "path", path)
			continue
		}
		pf := parsedFile{path: path, doc: doc, fp: BuildFingerprint(path, doc.Format, doc.Segments)}
		if doc.Format == transcript.FormatJSON {
			jsonParsed = append(jsonParsed, pf)
		} else {
			srtParsed = append(srtParsed, pf)
		}
	}

	var jsonFPs, srtFPs []fileFingerprint
	for _, p := range jsonParsed {
		jsonFPs = append(jsonFPs, p.fp)
	}
	for _, p := range srtParsed {
		srtFPs = append(srtFPs, p.fp)
	}
	duplicates := FindDuplicates(jsonFPs, srtFPs)

	allFiles := append([]parsedFile{}, jsonParsed...)
	for _, p := range srtParsed {
		if duplicates[p.path] {
			r.logger.Info("skipping duplicate subtitle file", "path", p.path)
			state.MarkProcessed(p.path)
			continue
		}
		allFiles = append(allFiles, p)
	}

	state.FilesRemaining = len(allFiles)
	r.logger.Info("files to process",
		"total", len(allFiles),
		"json", len(jsonParsed),
		"subtitles_unique", len(allFiles)-len(jsonParsed),
		"subtitles_skipped", len(duplicates),
	)

	var summaries []FileSummary
	written := 0
	for _, pf := range allFiles {
		select {
		case <-ctx.Done():
			r.logger.Info("backfill interrupted, saving state")
			_ = state.Save()
			r.postBatchSummary(ctx, summaries)
			return ctx.Err()
		default:
		}

		fs := r.processFile(ctx, pf, state)
		summaries = append(summaries, fs)
		if fs.Errors == 0 {
			written++
		}
		state.MarkProcessed(pf.path)
		state.FilesRemaining--
		_ = state.Save()
	}

	_ = state.Save()
	r.postBatchSummary(ctx, summaries)

	r.logger.Info("backfill complete",
		"files_processed", len(allFiles),
		"analyses_written", written,
		"dry_run", r.cfg.DryRun,
	)

	fmt.Fprintf(r.out, "\n=== Backfill Summary ===\n")
	fmt.Fprintf(r.out, "Files processed: %d\n", len(allFiles))
	fmt.Fprintf(r.out, "Duplicates skipped: %d\n", len(duplicates))
	fmt.Fprintf(r.out, "Golden points found: %d\n", state.GoldenPoints)
	fmt.Fprintf(r.out, "Concepts found: %d\n", state.Concepts)
	fmt.Fprintf(r.out, "Errors: %d\n", len(state.Errors))
	if r.cfg.DryRun {
		fmt.Fprintf(r.out, "Mode: DRY RUN (no DB writes)\n")
	}
	fmt.Fprintf(r.out, "State file: %s\n", state.Path())

	return nil
}

func (r *Runner) processFile(ctx context.Context, pf parsedFile, state *BackfillState) FileSummary {
	fs := FileSummary{Path: pf.path, Format: pf.doc.Format.String()}
	lesson := r.lessonName(pf.path)

	r.logger.Info("processing file", "path", pf.path, "segments", len(pf.doc.Segments), "format", fs.Format)

	rep, err := r.analyzer.Analyze(pf.doc.Text, pf.doc.Segments, analysis.AnalyzeOpts{LessonName: lesson})
	if err != nil {
		r.logger.Error("analysis failed", "path", pf.path, "error", err)
		state.AddError(fmt.Sprintf("analyze %s: %v", pf.path, err))
		fs.Errors++
		return fs
	}
	fs.LessonType = rep.Summary.LessonType
	fs.GoldenPoints = len(rep.GoldenPoints)
	fs.Concepts = len(rep.TradingConcepts)

	if r.cfg.OutDir != "" {
		if err := WriteExports(filepath.Join(r.cfg.OutDir, stem(pf.path)), lesson, rep, r.cfg.Export); err != nil {
			r.logger.Error("export failed", "path", pf.path, "error", err)
			state.AddError(fmt.Sprintf("export %s: %v", pf.path, err))
			fs.Errors++
		}
	}

	if !r.cfg.DryRun && r.store != nil {
		ref := store.LessonRef{
			LessonID:    stem(pf.path),
			LessonName:  lesson,
			ContentHash: cache.ContentHash(pf.doc.Text, pf.doc.Segments, lesson),
		}
		id, err := r.store.SaveAnalysis(ctx, ref, rep)
		if err != nil {
			r.logger.Error("persist failed", "path", pf.path, "error", err)
			state.AddError(fmt.Sprintf("persist %s: %v", pf.path, err))
			fs.Errors++
			return fs
		}
		state.AnalysesWritten++
		r.logger.Info("analysis stored", "path", pf.path, "analysis_id", id)
	}

	state.GoldenPoints += fs.GoldenPoints
	state.Concepts += fs.Concepts
	return fs
}

func (r *Runner) lessonName(path string) string {
	if r.cfg.LessonName != "" && r.cfg.SingleFile != "" {
		return r.cfg.LessonName
	}
	return stem(path)
}

// WriteExports renders the requested exports into dir/analysis.
func WriteExports(dir, lessonName string, rep *analysis.Report, mode string) error {
	if mode == "" {
		mode = ExportAll
	}
	if mode == ExportNone {
		return nil
	}
	if !ValidExport(mode) {
		return fmt.Errorf("%w: %s", ErrUnknownExport, mode)
	}

	files := make(map[string][]byte)
	if mode == ExportNotes || mode == ExportBoth || mode == ExportAll {
		files["golden-points.md"] = export.GoldenPointsMarkdown(rep, lessonName)
		files["notes.md"] = export.NotesMarkdown(rep, lessonName)
	}
	if mode == ExportConcepts || mode == ExportBoth || mode == ExportAll {
		data, err := export.ConceptsJSON(rep)
		if err != nil {
			return err
		}
		files["concepts.json"] = data
	}
	if mode == ExportClips || mode == ExportAll {
		data, err := export.ClipPlanJSON(rep.GoldenPoints)
		if err != nil {
			return err
		}
		files["clips.json"] = data
	}

	target := filepath.Join(dir, "analysis")
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(target, name), data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

// postBatchSummary posts a summary of backfill results to Slack.
// If Slack is not configured, it logs the summary instead.
func (r *Runner) postBatchSummary(ctx context.Context, summaries []FileSummary) {
	if len(summaries) == 0 {
		return
	}

	text := FormatBatchSummary(summaries)

	if r.slack == nil {
		r.logger.Info("backfill batch summary (no Slack configured)",
			"summary", text,
		)
		return
	}

	if err := r.slack.PostThread(ctx, "", text); err != nil {
		r.logger.Warn("failed to post batch summary to Slack, logging instead",
			"error", err,
			"summary", text,
		)
	}
}

// FormatBatchSummary formats file summaries grouped by lesson type.
func FormatBatchSummary(summaries []FileSummary) string {
	byType := make(map[string][]FileSummary)
	for _, s := range summaries {
		typ := s.LessonType
		if typ == "" {
			typ = "failed"
		}
		byType[typ] = append(byType[typ], s)
	}

	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)

	var sb strings.Builder
	sb.WriteString("*Backfill Batch Summary*\n")

	for _, typ := range types {
		files := byType[typ]
		totalGP, totalConcepts := 0, 0
		for _, f := range files {
			totalGP += f.GoldenPoints
			totalConcepts += f.Concepts
		}
		fmt.Fprintf(&sb, "\n*%s* (%d files, %d golden points, %d concepts)\n", typ, len(files), totalGP, totalConcepts)
		for _, f := range files {
			name := filepath.Base(f.Path)
			fmt.Fprintf(&sb, "  - %s [%s]: %d gp, %d concepts", name, f.Format, f.GoldenPoints, f.Concepts)
			if f.Errors > 0 {
				fmt.Fprintf(&sb, " (%d errors)", f.Errors)
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func (r *Runner) discoverFiles() ([]string, error) {
	if r.cfg.SingleFile != "" {
		path := expandHome(r.cfg.SingleFile)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("single file not found: %s", path)
		}
		return []string{path}, nil
	}

	dir := expandHome(r.cfg.Dir)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("transcript dir not found: %s", dir)
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}
		if !d.IsDir() && transcript.Supported(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		r.logger.Warn("error walking transcript dir", "dir", dir, "error", err)
	}
	sort.Strings(files)
	return files, nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
