package backfill

import (
	"math"

	"github.com/MikeSquared-Agency/lectern/internal/extractor"
	"github.com/MikeSquared-Agency/lectern/internal/transcript"
)

// dedupWindow is the tolerance in seconds for matching segment starts across files.
const dedupWindow = 1.0

// overlapThreshold is the fraction of segment starts that must match to consider files duplicates.
const overlapThreshold = 0.8

// fileFingerprint holds timing info for deduplication.
type fileFingerprint struct {
	Path   string
	Format transcript.Format
	Starts []float64
}

// BuildFingerprint creates a fingerprint from the segments of one transcript.
func BuildFingerprint(path string, format transcript.Format, segs []extractor.Segment) fileFingerprint {
	fp := fileFingerprint{Path: path, Format: format}
	for _, s := range segs {
		fp.Starts = append(fp.Starts, s.Start)
	}
	return fp
}

// FindDuplicates returns the secondary (subtitle) files whose timing overlaps a
// primary (JSON) transcript. JSON is the preferred source.
func FindDuplicates(primary, secondary []fileFingerprint) map[string]bool {
	duplicates := make(map[string]bool)

	for _, sec := range secondary {
		if len(sec.Starts) == 0 {
			continue
		}
		for _, p := range primary {
			if isOverlapping(p, sec) {
				duplicates[sec.Path] = true
				break
			}
		}
	}

	return duplicates
}

// isOverlapping checks if at least 80% of b's segment starts appear in a
// within the dedupWindow.
func isOverlapping(a, b fileFingerprint) bool {
	if len(b.Starts) == 0 {
		return false
	}

	matches := 0
	for _, bt := range b.Starts {
		for _, at := range a.Starts {
			if math.Abs(bt-at) <= dedupWindow {
				matches++
				break
			}
		}
	}

	return float64(matches)/float64(len(b.Starts)) >= overlapThreshold
}
