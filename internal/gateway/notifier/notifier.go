// Package notifier pushes trade events to an external channel.
package notifier

import (
	"fmt"
	"strings"
	"time"
)

// TextNotifier is intentionally small so components can depend on it without
// importing a concrete transport.
type TextNotifier interface {
	SendText(text string) error
}

// Noop satisfies TextNotifier when notifications are disabled.
type Noop struct{}

func (Noop) SendText(string) error { return nil }

const maxMessageLen = 3800

// Message is a uniform notification layout: a titled header, labeled lines
// and a timestamp footer.
type Message struct {
	Icon      string
	Title     string
	Lines     []string
	Timestamp time.Time
}

// Render produces the Markdown body, trimmed to the Telegram size limit.
func (m Message) Render() string {
	var b strings.Builder
	header := strings.TrimSpace(m.Icon + " " + m.Title)
	if header != "" {
		b.WriteString(header + "\n\n")
	}
	for _, line := range m.Lines {
		if line = strings.TrimSpace(line); line != "" {
			b.WriteString(line + "\n")
		}
	}
	if !m.Timestamp.IsZero() {
		b.WriteString(fmt.Sprintf("\nat %s", m.Timestamp.Format("2006-01-02 15:04:05 MST")))
	}
	body := strings.TrimSpace(b.String())
	if len(body) > maxMessageLen {
		body = body[:maxMessageLen] + "..."
	}
	return body
}
