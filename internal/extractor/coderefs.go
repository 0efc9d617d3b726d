package extractor

import (
	"strings"

	"github.com/MikeSquared-Agency/lectern/internal/dedup"
	"github.com/MikeSquared-Agency/lectern/internal/textutil"
)

// CodeReferences tags segments that mention a platform, language, or data
// source. References of the same platform that repeat an earlier one are dropped.
func (e *Extractor) CodeReferences(segments []Segment) []CodeReference {
	refs := []CodeReference{}
	for _, seg := range segments {
		desc := strings.TrimSpace(seg.Text)
		if desc == "" {
			continue
		}
		ts := textutil.FormatTimestamp(seg.Start)

		for _, cp := range e.kb.CodePatterns {
			if !cp.Re.MatchString(seg.Text) {
				continue
			}
			if e.repeatsReference(cp.Platform, desc, refs) {
				continue
			}
			refs = append(refs, CodeReference{
				Platform:    cp.Platform,
				Description: desc,
				MentionedAt: ts,
			})
		}
	}
	return refs
}

func (e *Extractor) repeatsReference(platform, desc string, refs []CodeReference) bool {
	for _, r := range refs {
		if r.Platform == platform && e.dedup.IsDuplicate(desc, r.Description, dedup.CodeReferenceThreshold) {
			return true
		}
	}
	return false
}
