package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/MikeSquared-Agency/lectern/internal/analysis"
	"github.com/MikeSquared-Agency/lectern/internal/backfill"
	"github.com/MikeSquared-Agency/lectern/internal/config"
	"github.com/MikeSquared-Agency/lectern/internal/knowledge"
	"github.com/MikeSquared-Agency/lectern/internal/store"
	"github.com/MikeSquared-Agency/lectern/internal/transcript"
)

func main() {
	var (
		dir     string
		file    string
		lesson  string
		outDir  string
		mode    string
		asJSON  bool
		dryRun  bool
		state   string
		kbPath  string
		noSlack bool
	)
	flag.StringVar(&dir, "dir", "", "directory of transcripts (.json, .srt, .vtt) to analyze")
	flag.StringVar(&file, "file", "", "analyze a single transcript file")
	flag.StringVar(&lesson, "lesson", "", "lesson name for -file (defaults to the file name)")
	flag.StringVar(&outDir, "out", "", "write exports under this directory")
	flag.StringVar(&mode, "export", backfill.ExportAll, "exports to write: none, notes, concepts, clips, both, all")
	flag.BoolVar(&asJSON, "json", false, "print the full report for -file as JSON and exit")
	flag.BoolVar(&dryRun, "dry-run", false, "analyze and export without writing to the database")
	flag.StringVar(&state, "state", backfill.DefaultStatePath, "resumable state file")
	flag.StringVar(&kbPath, "knowledge", "", "knowledge base YAML (defaults to LECTERN_KNOWLEDGE_BASE or the built-in base)")
	flag.BoolVar(&noSlack, "no-slack", false, "do not post the batch summary to Slack")
	flag.Parse()

	_ = godotenv.Load(".env", ".env.local")
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	if dir == "" && file == "" {
		fmt.Fprintln(os.Stderr, "one of -dir or -file is required")
		flag.Usage()
		os.Exit(2)
	}
	if !backfill.ValidExport(mode) {
		fmt.Fprintf(os.Stderr, "unknown -export %q\n", mode)
		os.Exit(2)
	}

	if kbPath == "" {
		kbPath = cfg.KnowledgeBase
	}
	kb, err := knowledge.Load(kbPath)
	if err != nil {
		slog.Error("failed to load knowledge base", "path", kbPath, "error", err)
		os.Exit(1)
	}
	analyzer := analysis.New(kb, slog.Default())

	if asJSON {
		if file == "" {
			fmt.Fprintln(os.Stderr, "-json requires -file")
			os.Exit(2)
		}
		if err := printReport(analyzer, file, lesson); err != nil {
			slog.Error("analysis failed", "file", file, "error", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var saver backfill.Saver
	if !dryRun && cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			slog.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
		saver = db
	} else if !dryRun {
		slog.Warn("DATABASE_URL not set, analyses will only be exported")
	}

	bcfg := backfill.Config{
		Dir:        dir,
		SingleFile: file,
		OutDir:     outDir,
		Export:     mode,
		LessonName: lesson,
		DryRun:     dryRun,
		StatePath:  state,
	}
	if !noSlack {
		bcfg.SlackToken = cfg.SlackBotToken
		bcfg.SlackChannel = cfg.SlackChannel
	}

	runner := backfill.NewRunner(bcfg, saver, analyzer, slog.Default())
	if err := runner.Run(ctx); err != nil {
		slog.Error("backfill failed", "error", err)
		os.Exit(1)
	}
}

func printReport(a *analysis.Analyzer, path, lesson string) error {
	doc, err := transcript.LoadFile(path)
	if err != nil {
		return err
	}
	if lesson == "" {
		lesson = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	rep, err := a.Analyze(doc.Text, doc.Segments, analysis.AnalyzeOpts{LessonName: lesson})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(rep)
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
