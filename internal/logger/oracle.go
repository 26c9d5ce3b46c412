package logger

import (
	"io"
	"log"
	"strings"
	"sync"
)

// Oracle exchanges are dumped to a dedicated writer so the main log stays
// readable. Disabled until SetOracleWriter is called with a non-nil writer.

var (
	oracleMu          sync.Mutex
	oracleLog         *log.Logger
	oracleDumpPayload bool
)

func SetOracleWriter(w io.Writer) {
	oracleMu.Lock()
	defer oracleMu.Unlock()
	if w == nil {
		oracleLog = nil
		return
	}
	oracleLog = log.New(w, "", log.LstdFlags)
}

func EnableOraclePayloadDump(enabled bool) {
	oracleMu.Lock()
	oracleDumpPayload = enabled
	oracleMu.Unlock()
}

type oracleSection struct {
	Title string
	Body  string
}

func logOracle(kind, strategy string, sections []oracleSection) {
	oracleMu.Lock()
	l := oracleLog
	oracleMu.Unlock()
	if l == nil {
		return
	}
	var b strings.Builder
	b.WriteString("[ORACLE]")
	if kind != "" {
		b.WriteString("[")
		b.WriteString(kind)
		b.WriteString("]")
	}
	if strategy != "" {
		b.WriteString("[")
		b.WriteString(strategy)
		b.WriteString("]")
	}
	b.WriteString("\n")
	for _, sec := range sections {
		t := strings.TrimSpace(sec.Title)
		if t == "" {
			t = "CONTENT"
		}
		b.WriteString("--- ")
		b.WriteString(t)
		b.WriteString(" ---\n")
		b.WriteString(sec.Body)
		if !strings.HasSuffix(sec.Body, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString("=====\n")
	l.Print(b.String())
}

func LogOracleRequest(strategy, systemPrompt, userPrompt, payload string) {
	sections := []oracleSection{
		{Title: "SYSTEM", Body: systemPrompt},
		{Title: "USER", Body: userPrompt},
	}
	oracleMu.Lock()
	dump := oracleDumpPayload
	oracleMu.Unlock()
	if dump && strings.TrimSpace(payload) != "" {
		sections = append(sections, oracleSection{Title: "PAYLOAD", Body: payload})
	}
	logOracle("request", strategy, sections)
}

func LogOracleResponse(strategy, raw string) {
	logOracle("response", strategy, []oracleSection{{Title: "RAW", Body: raw}})
}
