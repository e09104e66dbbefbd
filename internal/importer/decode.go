package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"aical/internal/model"
)

// StripCodeFence removes a surrounding ``` or ```json fence from a
// completion. Unfenced content is only trimmed.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		s = s[4:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// DecodeCandidates accepts {"events":[...]}, a bare array, or a single
// event object.
func DecodeCandidates(content string) ([]model.Candidate, error) {
	body := StripCodeFence(content)
	if body == "" {
		return nil, errors.New("empty completion")
	}

	var out []model.Candidate
	switch body[0] {
	case '[':
		if err := json.Unmarshal([]byte(body), &out); err != nil {
			return nil, fmt.Errorf("decode event array: %w", err)
		}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(body), &obj); err != nil {
			return nil, fmt.Errorf("decode event object: %w", err)
		}
		if raw, ok := obj["events"]; ok {
			if err := json.Unmarshal(raw, &out); err != nil {
				return nil, fmt.Errorf("decode events: %w", err)
			}
			break
		}
		var one model.Candidate
		if err := json.Unmarshal([]byte(body), &one); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		out = append(out, one)
	default:
		return nil, fmt.Errorf("completion is not JSON: %.40q", body)
	}
	return out, nil
}
