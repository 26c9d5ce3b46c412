package news

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	assert.Equal(t, "No news available.", Summarize(nil))

	items := []Item{
		{Title: "ETF approval expected", Source: "wire"},
		{Title: "Exchange volumes climb", Source: "desk"},
	}
	assert.Equal(t, "1. ETF approval expected (wire)\n2. Exchange volumes climb (desk)", Summarize(items))
}

func TestSentiment(t *testing.T) {
	cases := []struct {
		name  string
		items []Item
		want  string
	}{
		{"empty is neutral", nil, "neutral"},
		{"positive markers", []Item{{Title: "ETF approval sparks rally"}}, "positive"},
		{"negative markers", []Item{{Body: "exchange hack triggers selloff"}}, "negative"},
		{"mixed is neutral", []Item{{Title: "rally fades after hack"}}, "neutral"},
		{"no markers is neutral", []Item{{Title: "markets quiet today"}}, "neutral"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Sentiment(tc.items))
		})
	}
}
