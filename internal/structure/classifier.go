package structure

import "github.com/MikeSquared-Agency/lectern/internal/knowledge"

// Segment labels, in classification priority order.
const (
	LabelQuestion    = "question"
	LabelExample     = "example"
	LabelExplanation = "explanation"
	LabelContent     = "content"
)

// Rule pairs a label with the expression families that detect it.
type Rule struct {
	Label    string
	Families []knowledge.Family
}

// Match returns the type of the first family that matches text.
func (r Rule) Match(text string) (string, bool) {
	for _, f := range r.Families {
		if f.Re.MatchString(text) {
			return f.Type, true
		}
	}
	return "", false
}

// Classifier evaluates rules in order; the first match wins.
type Classifier struct {
	rules []Rule
}

func NewClassifier(kb *knowledge.Base) *Classifier {
	return &Classifier{rules: []Rule{
		{Label: LabelQuestion, Families: kb.Questions},
		{Label: LabelExample, Families: kb.Examples},
		{Label: LabelExplanation, Families: kb.Explanations},
	}}
}

// Rules returns the ordered rule list.
func (c *Classifier) Rules() []Rule {
	return c.rules
}

// Classify labels a segment, defaulting to content.
func (c *Classifier) Classify(text string) string {
	for _, r := range c.rules {
		if _, ok := r.Match(text); ok {
			return r.Label
		}
	}
	return LabelContent
}
