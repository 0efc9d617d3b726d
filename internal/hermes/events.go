package hermes

import (
	"errors"
	"time"
)

// NATS subjects used by lectern.
const (
	SubjectTranscriptStored  = "swarm.lesson.transcript.stored"
	SubjectAnalysisCompleted = "swarm.lectern.analysis.completed"
	SubjectResearchProposed  = "swarm.lectern.research.proposed"
	SubjectAgentRegistered   = "swarm.agent.lectern.registered"
)

// TranscriptSegment mirrors one timed span of a stored transcript.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// TranscriptEvent announces a lesson transcript ready for analysis. The
// transcript is either inline or referenced by path.
type TranscriptEvent struct {
	LessonID       string              `json:"lesson_id"`
	LessonName     string              `json:"lesson_name"`
	TranscriptPath string              `json:"transcript_path,omitempty"`
	Transcript     string              `json:"transcript,omitempty"`
	Segments       []TranscriptSegment `json:"segments,omitempty"`
}

var ErrEmptyTranscriptEvent = errors.New("transcript event carries neither transcript nor transcript_path")

// Validate checks that the event points at some transcript content.
func (e TranscriptEvent) Validate() error {
	if e.Transcript == "" && e.TranscriptPath == "" {
		return ErrEmptyTranscriptEvent
	}
	return nil
}

// AnalysisCompleted is published after an analysis is stored.
type AnalysisCompleted struct {
	AnalysisID      string    `json:"analysis_id"`
	LessonID        string    `json:"lesson_id"`
	LessonName      string    `json:"lesson_name"`
	GoldenPoints    int       `json:"golden_points"`
	Concepts        int       `json:"concepts"`
	LessonType      string    `json:"lesson_type"`
	ComplexityScore float64   `json:"complexity_score"`
	EngagementScore float64   `json:"engagement_score"`
	Cached          bool      `json:"cached"`
	Timestamp       time.Time `json:"timestamp"`
}

// AgentRegistered announces the service on startup.
type AgentRegistered struct {
	AgentID      string   `json:"agent_id"`
	Name         string   `json:"name"`
	Capabilities []string `json:"capabilities"`
	Version      string   `json:"version"`
}
