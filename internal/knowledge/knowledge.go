package knowledge

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable that overrides the embedded knowledge base.
const EnvPath = "LECTERN_KNOWLEDGE_BASE"

// ErrInvalid is wrapped by every validation failure returned from Parse.
var ErrInvalid = errors.New("invalid knowledge base")

//go:embed knowledge.yaml
var embedded []byte

// Concept categories accepted in the knowledge base.
const (
	CategoryIndicator      = "indicator"
	CategoryStrategy       = "strategy"
	CategoryRiskManagement = "risk_management"
	CategoryPlatform       = "platform"
	CategoryAcademic       = "academic"
)

var categories = map[string]bool{
	CategoryIndicator:      true,
	CategoryStrategy:       true,
	CategoryRiskManagement: true,
	CategoryPlatform:       true,
	CategoryAcademic:       true,
}

// Concept is one compiled knowledge-base entry.
type Concept struct {
	Key             string
	Variants        []string
	Category        string
	Complexity      int
	Description     string
	ContextPatterns []*regexp.Regexp
}

// Pattern is a golden-point trigger with its base importance.
type Pattern struct {
	Tier     string
	Category string
	Base     int
	Re       *regexp.Regexp
}

// CodePattern maps a platform tag to the expression that detects it.
type CodePattern struct {
	Platform string
	Re       *regexp.Regexp
}

// Family is one typed expression inside a structure class.
type Family struct {
	Type string
	Re   *regexp.Regexp
}

// ResearchCategory groups concepts that share a research direction.
type ResearchCategory struct {
	Name        string   `yaml:"name"`
	Keywords    []string `yaml:"keywords"`
	Concepts    []string `yaml:"concepts"`
	Priority    int      `yaml:"priority"`
	Description string   `yaml:"description"`
}

// Base is the compiled, read-only knowledge base. It is safe for concurrent use.
type Base struct {
	Concepts           []Concept
	GoldenPatterns     []Pattern
	Emphasis           []*regexp.Regexp
	Hedging            *regexp.Regexp
	Interrogative      *regexp.Regexp
	CodePatterns       []CodePattern
	Questions          []Family
	Examples           []Family
	Explanations       []Family
	AcademicKeywords   []string
	AcademicTopics     []string
	ResearchCategories []ResearchCategory

	stopWords   map[string]bool
	commonWords map[string]bool
	variants    []string
	byKey       map[string]int
}

// Variants returns every distinct variant across all concepts, sorted.
func (b *Base) Variants() []string {
	return b.variants
}

// Concept looks up an entry by key.
func (b *Base) Concept(key string) (Concept, bool) {
	i, ok := b.byKey[key]
	if !ok {
		return Concept{}, false
	}
	return b.Concepts[i], true
}

// IsStopWord reports whether a lower-cased token is ignored for key-word comparison.
func (b *Base) IsStopWord(w string) bool {
	return b.stopWords[w]
}

// IsCommonWord reports whether a variant is an everyday short word.
func (b *Base) IsCommonWord(w string) bool {
	return b.commonWords[strings.ToLower(w)]
}

// Sizes counts concepts per category.
func (b *Base) Sizes() map[string]int {
	out := make(map[string]int, len(categories))
	for c := range categories {
		out[c] = 0
	}
	for _, c := range b.Concepts {
		out[c.Category]++
	}
	return out
}

type yamlBase struct {
	Version        int                `yaml:"version"`
	Concepts       []yamlConcept      `yaml:"concepts"`
	GoldenPatterns []yamlTier         `yaml:"golden_patterns"`
	Scoring        yamlScoring        `yaml:"scoring"`
	StopWords      []string           `yaml:"stop_words"`
	CommonWords    []string           `yaml:"common_words"`
	CodePatterns   []yamlCodePattern  `yaml:"code_patterns"`
	Structure      yamlStructure      `yaml:"structure"`
	Academic       yamlAcademic       `yaml:"academic"`
	Research       []ResearchCategory `yaml:"research_categories"`
}

type yamlConcept struct {
	Key             string   `yaml:"key"`
	Category        string   `yaml:"category"`
	Complexity      int      `yaml:"complexity"`
	Variants        []string `yaml:"variants"`
	ContextPatterns []string `yaml:"context_patterns"`
	Description     string   `yaml:"description"`
}

type yamlTier struct {
	Tier     string `yaml:"tier"`
	Patterns []struct {
		Category string `yaml:"category"`
		Base     int    `yaml:"base"`
		Pattern  string `yaml:"pattern"`
	} `yaml:"patterns"`
}

type yamlScoring struct {
	Emphasis      []string `yaml:"emphasis"`
	Hedging       string   `yaml:"hedging"`
	Interrogative string   `yaml:"interrogative"`
}

type yamlCodePattern struct {
	Platform string `yaml:"platform"`
	Pattern  string `yaml:"pattern"`
}

type yamlFamily struct {
	Type    string `yaml:"type"`
	Pattern string `yaml:"pattern"`
}

type yamlStructure struct {
	Questions    []yamlFamily `yaml:"questions"`
	Examples     []yamlFamily `yaml:"examples"`
	Explanations []yamlFamily `yaml:"explanations"`
}

type yamlAcademic struct {
	Keywords []string `yaml:"keywords"`
	Topics   []string `yaml:"topics"`
}

var (
	defaultOnce sync.Once
	defaultBase *Base
	defaultErr  error
)

// Default returns the embedded knowledge base, parsed once per process.
func Default() (*Base, error) {
	defaultOnce.Do(func() {
		defaultBase, defaultErr = Parse(embedded)
	})
	return defaultBase, defaultErr
}

// LoadFile parses a knowledge base from disk.
func LoadFile(path string) (*Base, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge base: %w", err)
	}
	b, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// Load returns the file at path when set, otherwise the embedded default.
func Load(path string) (*Base, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

// Parse decodes and validates a YAML knowledge base.
func Parse(data []byte) (*Base, error) {
	var raw yamlBase
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode knowledge base: %w", err)
	}
	if len(raw.Concepts) == 0 {
		return nil, fmt.Errorf("%w: no concepts declared", ErrInvalid)
	}

	b := &Base{
		byKey:       make(map[string]int, len(raw.Concepts)),
		stopWords:   toSet(raw.StopWords),
		commonWords: toSet(raw.CommonWords),
	}

	seenVariants := make(map[string]bool)
	for _, rc := range raw.Concepts {
		c, err := compileConcept(rc)
		if err != nil {
			return nil, err
		}
		if _, dup := b.byKey[c.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate concept key %q", ErrInvalid, c.Key)
		}
		b.byKey[c.Key] = len(b.Concepts)
		b.Concepts = append(b.Concepts, c)
		for _, v := range c.Variants {
			if !seenVariants[v] {
				seenVariants[v] = true
				b.variants = append(b.variants, v)
			}
		}
	}
	sort.Strings(b.variants)

	for _, tier := range raw.GoldenPatterns {
		for _, p := range tier.Patterns {
			if p.Category == "" {
				return nil, fmt.Errorf("%w: golden pattern in tier %q has no category", ErrInvalid, tier.Tier)
			}
			if p.Base < 1 || p.Base > 5 {
				return nil, fmt.Errorf("%w: golden pattern %q: base %d outside 1-5", ErrInvalid, p.Category, p.Base)
			}
			re, err := compile(p.Pattern)
			if err != nil {
				return nil, fmt.Errorf("golden pattern %q: %w", p.Category, err)
			}
			b.GoldenPatterns = append(b.GoldenPatterns, Pattern{Tier: tier.Tier, Category: p.Category, Base: p.Base, Re: re})
		}
	}
	if len(b.GoldenPatterns) == 0 {
		return nil, fmt.Errorf("%w: no golden patterns declared", ErrInvalid)
	}

	var err error
	for _, p := range raw.Scoring.Emphasis {
		re, err := compile(p)
		if err != nil {
			return nil, fmt.Errorf("emphasis signal: %w", err)
		}
		b.Emphasis = append(b.Emphasis, re)
	}
	if b.Hedging, err = compile(raw.Scoring.Hedging); err != nil {
		return nil, fmt.Errorf("hedging signal: %w", err)
	}
	if b.Interrogative, err = compile(raw.Scoring.Interrogative); err != nil {
		return nil, fmt.Errorf("interrogative signal: %w", err)
	}

	for _, cp := range raw.CodePatterns {
		re, err := compile(cp.Pattern)
		if err != nil {
			return nil, fmt.Errorf("code pattern %q: %w", cp.Platform, err)
		}
		b.CodePatterns = append(b.CodePatterns, CodePattern{Platform: cp.Platform, Re: re})
	}

	if b.Questions, err = compileFamilies("questions", raw.Structure.Questions); err != nil {
		return nil, err
	}
	if b.Examples, err = compileFamilies("examples", raw.Structure.Examples); err != nil {
		return nil, err
	}
	if b.Explanations, err = compileFamilies("explanations", raw.Structure.Explanations); err != nil {
		return nil, err
	}

	b.AcademicKeywords = lowerAll(raw.Academic.Keywords)
	b.AcademicTopics = lowerAll(raw.Academic.Topics)

	for _, rc := range raw.Research {
		if rc.Name == "" {
			return nil, fmt.Errorf("%w: research category without name", ErrInvalid)
		}
		for _, key := range rc.Concepts {
			if _, ok := b.byKey[key]; !ok {
				return nil, fmt.Errorf("%w: research category %q references unknown concept %q", ErrInvalid, rc.Name, key)
			}
		}
		rc.Keywords = lowerAll(rc.Keywords)
		b.ResearchCategories = append(b.ResearchCategories, rc)
	}

	return b, nil
}

func compileConcept(rc yamlConcept) (Concept, error) {
	if rc.Key == "" {
		return Concept{}, fmt.Errorf("%w: concept without key", ErrInvalid)
	}
	if !categories[rc.Category] {
		return Concept{}, fmt.Errorf("%w: concept %q: unknown category %q", ErrInvalid, rc.Key, rc.Category)
	}
	if rc.Complexity < 1 || rc.Complexity > 5 {
		return Concept{}, fmt.Errorf("%w: concept %q: complexity %d outside 1-5", ErrInvalid, rc.Key, rc.Complexity)
	}
	if len(rc.Variants) == 0 {
		return Concept{}, fmt.Errorf("%w: concept %q: no variants", ErrInvalid, rc.Key)
	}
	for _, v := range rc.Variants {
		if strings.TrimSpace(v) == "" {
			return Concept{}, fmt.Errorf("%w: concept %q: empty variant", ErrInvalid, rc.Key)
		}
	}
	c := Concept{
		Key:         rc.Key,
		Variants:    rc.Variants,
		Category:    rc.Category,
		Complexity:  rc.Complexity,
		Description: rc.Description,
	}
	for _, p := range rc.ContextPatterns {
		re, err := compile(p)
		if err != nil {
			return Concept{}, fmt.Errorf("concept %q: %w", rc.Key, err)
		}
		c.ContextPatterns = append(c.ContextPatterns, re)
	}
	return c, nil
}

func compileFamilies(class string, in []yamlFamily) ([]Family, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: structure class %q is empty", ErrInvalid, class)
	}
	out := make([]Family, 0, len(in))
	for _, f := range in {
		re, err := compile(f.Pattern)
		if err != nil {
			return nil, fmt.Errorf("structure %s %q: %w", class, f.Type, err)
		}
		out = append(out, Family{Type: f.Type, Re: re})
	}
	return out, nil
}

func compile(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalid)
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: compile %q: %v", ErrInvalid, pattern, err)
	}
	return re, nil
}

func toSet(words []string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[strings.ToLower(w)] = true
	}
	return m
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
