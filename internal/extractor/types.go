package extractor

// Segment is one timestamped utterance of a transcript. Missing fields decode
// to zero values.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the full input of one analysis run.
type Transcript struct {
	Text     string    `json:"text" validate:"required"`
	Segments []Segment `json:"segments" validate:"required,min=1"`
}

// GoldenPoint is a high-value statement lifted from the lesson.
type GoldenPoint struct {
	Text       string `json:"text"`
	Timestamp  string `json:"timestamp"`
	Importance int    `json:"importance"` // 1-5
	Category   string `json:"category"`
}

// TradingConcept is a knowledge-base entry recognised in the lesson.
type TradingConcept struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	MentionedAt []string `json:"mentioned_at"` // chronological, de-bounced
	Category    string   `json:"category"`
	Complexity  int      `json:"complexity"` // 1-5
}

// CodeReference is a segment that talks about code, a platform, or data plumbing.
type CodeReference struct {
	Platform    string  `json:"platform"`
	Description string  `json:"description"`
	MentionedAt string  `json:"mentioned_at"`
	Snippet     *string `json:"code_snippet"`
}
