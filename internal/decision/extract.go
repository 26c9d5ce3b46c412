package decision

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

const codeFence = "```"

// ExtractProposalJSON pulls the first JSON object out of free-form decision
// source output: fenced code blocks first, then a brace walk over the raw
// text. The returned string is validated as JSON and guaranteed to carry an
// action field (possibly empty-valued fields otherwise).
func ExtractProposalJSON(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty oracle output")
	}
	candidate, ok := extractFromFence(raw)
	if !ok {
		candidate, ok = extractJSONObject(raw)
	}
	if !ok {
		return "", fmt.Errorf("no JSON object found in oracle output")
	}
	if !gjson.Valid(candidate) {
		return "", fmt.Errorf("extracted text is not valid JSON")
	}
	parsed := gjson.Parse(candidate)
	if !parsed.IsObject() {
		return "", fmt.Errorf("proposal root must be a JSON object")
	}
	if !parsed.Get("action").Exists() {
		return "", fmt.Errorf("proposal has no action field")
	}
	return candidate, nil
}

func extractFromFence(raw string) (string, bool) {
	start := strings.Index(raw, codeFence)
	if start == -1 {
		return "", false
	}
	rest := raw[start+len(codeFence):]
	end := strings.Index(rest, codeFence)
	if end == -1 {
		return "", false
	}
	block := strings.TrimLeft(rest[:end], "\r\n")
	// Drop a language tag line like "json".
	if idx := strings.Index(block, "\n"); idx != -1 {
		first := strings.TrimSpace(block[:idx])
		if first != "" && !strings.ContainsAny(first, "[{") {
			block = block[idx+1:]
		}
	}
	block = strings.TrimSpace(block)
	if block == "" {
		return "", false
	}
	return extractJSONObject(block)
}

func extractJSONObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	if start == -1 {
		return "", false
	}
	depth := 0
	inString := false
	escape := false
	for i := start; i < len(raw); i++ {
		ch := raw[i]
		if inString {
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(raw[start : i+1]), true
			}
		}
	}
	return "", false
}
