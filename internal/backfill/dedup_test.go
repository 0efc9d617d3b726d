package backfill

import (
	"testing"

	"github.com/MikeSquared-Agency/lectern/internal/extractor"
	"github.com/MikeSquared-Agency/lectern/internal/transcript"
)

func TestFindDuplicates(t *testing.T) {
	primary := fileFingerprint{
		Path:   "clase1.json",
		Format: transcript.FormatJSON,
		Starts: []float64{0, 4.2, 9.8, 15, 21.5},
	}

	tests := []struct {
		name   string
		starts []float64
		want   bool
	}{
		{"same timing", []float64{0, 4.2, 9.8, 15, 21.5}, true},
		{"within window", []float64{0.4, 4.9, 10.5, 15.9, 22}, true},
		{"four of five", []float64{0, 4.2, 9.8, 15, 300}, true},
		{"three of five", []float64{0, 4.2, 9.8, 200, 300}, false},
		{"different lesson", []float64{100, 110, 120}, false},
		{"no segments", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sec := fileFingerprint{Path: "clase1.srt", Format: transcript.FormatSRT, Starts: tt.starts}
			dups := FindDuplicates([]fileFingerprint{primary}, []fileFingerprint{sec})
			if dups["clase1.srt"] != tt.want {
				t.Errorf("duplicate = %v, want %v", dups["clase1.srt"], tt.want)
			}
		})
	}
}

func TestFindDuplicates_NoPrimary(t *testing.T) {
	sec := fileFingerprint{Path: "a.srt", Starts: []float64{0, 1}}
	if dups := FindDuplicates(nil, []fileFingerprint{sec}); len(dups) != 0 {
		t.Errorf("expected no duplicates without primaries, got %v", dups)
	}
}

func TestBuildFingerprint(t *testing.T) {
	segs := []extractor.Segment{{Start: 1.5, Text: "a"}, {Start: 3, Text: "b"}}
	fp := BuildFingerprint("x.json", transcript.FormatJSON, segs)
	if fp.Path != "x.json" || len(fp.Starts) != 2 || fp.Starts[1] != 3 {
		t.Errorf("unexpected fingerprint %+v", fp)
	}
}
