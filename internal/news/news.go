// Package news supplies headline summaries for the oracle payload.
package news

import (
	"context"
	"fmt"
	"strings"
)

// Item is one headline.
type Item struct {
	Title  string `json:"title"`
	Source string `json:"source"`
	Body   string `json:"body"`
}

// Provider fetches recent headlines for a query. Implementations should
// degrade to an empty slice rather than fail the cycle.
type Provider interface {
	Headlines(ctx context.Context, query string, n int) ([]Item, error)
}

// Noop is the disabled provider.
type Noop struct{}

func (Noop) Headlines(context.Context, string, int) ([]Item, error) { return nil, nil }

// Summarize renders a numbered headline list for prompt embedding.
func Summarize(items []Item) string {
	if len(items) == 0 {
		return "No news available."
	}
	lines := make([]string, 0, len(items))
	for i, it := range items {
		lines = append(lines, fmt.Sprintf("%d. %s (%s)", i+1, it.Title, it.Source))
	}
	return strings.Join(lines, "\n")
}

var (
	positiveMarkers = []string{"approval", "surge", "rally", "bullish", "upgrade", "gain"}
	negativeMarkers = []string{"ban", "hack", "down", "bearish", "selloff", "liquidation"}
)

// Sentiment gives a coarse keyword read: positive, negative or neutral.
// Mixed signals are neutral.
func Sentiment(items []Item) string {
	if len(items) == 0 {
		return "neutral"
	}
	var b strings.Builder
	for _, it := range items {
		b.WriteString(it.Title)
		b.WriteString(" ")
		b.WriteString(it.Body)
		b.WriteString(" ")
	}
	text := strings.ToLower(b.String())
	pos := containsAny(text, positiveMarkers)
	neg := containsAny(text, negativeMarkers)
	switch {
	case pos && !neg:
		return "positive"
	case neg && !pos:
		return "negative"
	default:
		return "neutral"
	}
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
