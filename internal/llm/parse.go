package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// extractJSONObject pulls the first JSON object out of a model reply,
// tolerating markdown fences and prose around it.
func extractJSONObject(content string) (string, bool) {
	s := strings.TrimSpace(content)
	if fenced := stripCodeFence(s); fenced != "" {
		s = fenced
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func stripCodeFence(s string) string {
	start := strings.Index(s, "```")
	if start < 0 {
		return ""
	}
	rest := s[start+3:]
	if nl := strings.Index(rest, "\n"); nl >= 0 {
		// Drop a language tag like "json".
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}

// unmarshalRepaired decodes model JSON into v, trying jsonrepair when a
// straight unmarshal fails. Models routinely emit trailing commas, single
// quotes, or unquoted keys; repairing is cheaper than burning another call.
func unmarshalRepaired(raw string, v any) error {
	if err := json.Unmarshal([]byte(raw), v); err == nil {
		return nil
	}
	fixed, repairErr := jsonrepair.JSONRepair(raw)
	if repairErr != nil {
		return fmt.Errorf("llm: unparseable JSON: %w", repairErr)
	}
	if err := json.Unmarshal([]byte(fixed), v); err != nil {
		return fmt.Errorf("llm: JSON invalid after repair: %w", err)
	}
	return nil
}
