// Package decision defines the closed vocabulary the heartbeat accepts
// from the reasoning capability. Anything that fails to parse is a
// Pass, by contract.
package decision

import (
	"encoding/json"
	"strings"
)

type Kind int

const (
	KindPass Kind = iota
	KindLock
	KindMessage
)

func (k Kind) String() string {
	switch k {
	case KindLock:
		return "lock"
	case KindMessage:
		return "message"
	default:
		return "pass"
	}
}

type Decision struct {
	Kind   Kind
	Reason string // lock only
	Mood   string // message only
	Text   string // message only
}

type rawDecision struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
	Mood   string `json:"mood"`
	Text   string `json:"text"`
}

// Parse extracts a decision from raw model output. The model is asked
// for a bare JSON object but may wrap it in prose; everything outside
// the outermost braces is ignored. Malformed output parses as Pass.
func Parse(raw string) Decision {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return Decision{Kind: KindPass}
	}

	var rd rawDecision
	if err := json.Unmarshal([]byte(raw[start:end+1]), &rd); err != nil {
		return Decision{Kind: KindPass}
	}

	switch strings.ToLower(strings.TrimSpace(rd.Action)) {
	case "lock":
		reason := strings.TrimSpace(rd.Reason)
		if reason == "" {
			reason = "unspecified"
		}
		return Decision{Kind: KindLock, Reason: reason}
	case "message":
		text := strings.TrimSpace(rd.Text)
		if text == "" {
			return Decision{Kind: KindPass}
		}
		return Decision{Kind: KindMessage, Mood: strings.TrimSpace(rd.Mood), Text: text}
	default:
		return Decision{Kind: KindPass}
	}
}
