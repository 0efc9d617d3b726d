package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/lectern/internal/analysis"
	"github.com/MikeSquared-Agency/lectern/internal/research"
)

const defaultPostMessageURL = "https://slack.com/api/chat.postMessage"

// digestPoints bounds the golden points quoted in a digest.
const digestPoints = 5

type Poster struct {
	token   string
	channel string
	client  *http.Client
	logger  *slog.Logger
	apiURL  string
}

func NewPoster(token, channel string, logger *slog.Logger) *Poster {
	return &Poster{
		token:   token,
		channel: channel,
		client:  &http.Client{Timeout: 10 * time.Second},
		apiURL:  defaultPostMessageURL,
		logger:  logger,
	}
}

// PostLessonDigest posts the headline findings of an analysis and returns the
// message timestamp so follow-ups can be threaded under it.
func (p *Poster) PostLessonDigest(ctx context.Context, lessonName string, r *analysis.Report) (string, error) {
	text := formatDigest(lessonName, r)

	ts, err := p.post(ctx, map[string]any{
		"channel": p.channel,
		"text":    text,
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]any{
					"type": "mrkdwn",
					"text": text,
				},
			},
			{
				"type": "context",
				"elements": []map[string]any{
					{
						"type": "mrkdwn",
						"text": fmt.Sprintf("Style: %s | Engagement: %.1f/10 | Complexity: %.1f",
							r.Summary.TeachingStyle, r.Summary.EngagementScore, r.Summary.ComplexityScore),
					},
				},
			},
		},
	})
	if err != nil {
		return "", err
	}

	p.logger.Info("posted lesson digest to slack", "ts", ts, "lesson", lessonName)
	return ts, nil
}

// PostThread posts a threaded reply to a message.
func (p *Poster) PostThread(ctx context.Context, threadTS, text string) error {
	_, err := p.post(ctx, map[string]any{
		"channel":   p.channel,
		"thread_ts": threadTS,
		"text":      text,
	})
	return err
}

func (p *Poster) post(ctx context.Context, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		TS    string `json:"ts"`
		Error string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &slackResp); err != nil {
		return "", fmt.Errorf("parse slack response: %w", err)
	}
	if !slackResp.OK {
		return "", fmt.Errorf("slack error: %s", slackResp.Error)
	}
	return slackResp.TS, nil
}

func formatDigest(lessonName string, r *analysis.Report) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "*Lesson:* %s (%s)\n", lessonName, r.Summary.LessonType)
	fmt.Fprintf(&sb, "*Golden points:* %d (%d high) | *Concepts:* %d | *Code refs:* %d\n\n",
		r.Summary.TotalGoldenPoints, r.Summary.HighImportancePoints, r.Summary.TotalConcepts, r.Summary.CodeReferencesFound)

	if len(r.GoldenPoints) > 0 {
		sb.WriteString("*Top golden points*\n")
		for i, gp := range r.GoldenPoints {
			if i == digestPoints {
				break
			}
			fmt.Fprintf(&sb, "%d. `%s` [%s, %d/5] %s\n", i+1, gp.Timestamp, gp.Category, gp.Importance, gp.Text)
		}
		sb.WriteString("\n")
	}

	if len(r.TradingConcepts) > 0 {
		names := make([]string, len(r.TradingConcepts))
		for i, c := range r.TradingConcepts {
			names[i] = c.Name
		}
		fmt.Fprintf(&sb, "*Concepts:* %s\n", strings.Join(names, ", "))
	}

	if len(r.GoldenPoints) == 0 && len(r.TradingConcepts) == 0 {
		sb.WriteString("_No golden points or concepts found in this lesson._")
	}

	return sb.String()
}

// FormatResearchThread lists research topics for a threaded follow-up.
func FormatResearchThread(needs []research.Need) string {
	if len(needs) == 0 {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "*Research topics: %d*\n", len(needs))
	for i, n := range needs {
		fmt.Fprintf(&sb, "%d. %s [%s, priority %d]\n   %s\n", i+1, n.Topic, n.Category, n.Priority, n.SuggestedResearch)
	}
	return sb.String()
}
