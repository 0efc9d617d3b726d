package research

import (
	"fmt"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/lectern/internal/hermes"
)

// EventPublisher is the subset of the hermes client the publisher needs.
type EventPublisher interface {
	Publish(subject string, data any) error
}

// Proposal asks downstream researchers to back a lesson's high-priority topics.
type Proposal struct {
	AnalysisID string    `json:"analysis_id"`
	LessonID   string    `json:"lesson_id"`
	LessonName string    `json:"lesson_name"`
	Topics     []Need    `json:"topics"`
	Summary    string    `json:"summary"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher emits research proposals on the event bus.
type Publisher struct {
	bus EventPublisher
}

func NewPublisher(bus EventPublisher) *Publisher {
	return &Publisher{bus: bus}
}

// PublishProposal publishes the high-priority needs of one analysis. It
// reports false when nothing qualified.
func (p *Publisher) PublishProposal(analysisID, lessonID, lessonName string, needs []Need) (bool, error) {
	var topics []Need
	for _, n := range needs {
		if n.Priority >= HighPriority {
			topics = append(topics, n)
		}
	}
	if len(topics) == 0 {
		return false, nil
	}

	event := Proposal{
		AnalysisID: analysisID,
		LessonID:   lessonID,
		LessonName: lessonName,
		Topics:     topics,
		Summary:    proposalSummary(lessonName, topics),
		Timestamp:  time.Now().UTC(),
	}
	if err := p.bus.Publish(hermes.SubjectResearchProposed, event); err != nil {
		return false, fmt.Errorf("publish research proposal: %w", err)
	}
	return true, nil
}

func proposalSummary(lessonName string, topics []Need) string {
	byCategory := make(map[string][]string)
	var order []string
	for _, t := range topics {
		if _, ok := byCategory[t.Category]; !ok {
			order = append(order, t.Category)
		}
		byCategory[t.Category] = append(byCategory[t.Category], t.Topic)
	}
	parts := make([]string, 0, len(order))
	for _, c := range order {
		parts = append(parts, fmt.Sprintf("%s: %s", c, strings.Join(byCategory[c], ", ")))
	}
	name := lessonName
	if name == "" {
		name = "lesson"
	}
	return fmt.Sprintf("Research %d topics from %s (%s)", len(topics), name, strings.Join(parts, "; "))
}
