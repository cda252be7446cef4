package entity

import (
	"encoding/json"
	"strings"
)

type Role string

const (
	RoleAgent  Role = "agent"
	RoleCaller Role = "caller"
)

// ParseRole maps the voice platform's speaker labels onto our two roles.
// Anything that is not the agent is treated as the caller.
func ParseRole(raw string) Role {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "agent", "assistant", "ai":
		return RoleAgent
	default:
		return RoleCaller
	}
}

func (r Role) Label() string {
	if r == RoleAgent {
		return "Agent"
	}
	return "Caller"
}

type Turn struct {
	Role    Role   `json:"role"`
	Message string `json:"message"`
}

// Transcript is ordered chronologically.
type Transcript []Turn

func (t Transcript) TurnCount() int {
	return len(t)
}

func (t Transcript) IsEmpty() bool {
	return len(t) == 0
}

// Flatten renders the transcript as a speaker-prefixed text block, one turn per line.
func (t Transcript) Flatten() string {
	var sb strings.Builder
	for i, turn := range t {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(turn.Role.Label())
		sb.WriteString(": ")
		sb.WriteString(turn.Message)
	}
	return sb.String()
}

// Serialize returns the verbatim JSON form stored as raw_transcript.
func (t Transcript) Serialize() string {
	if t == nil {
		t = Transcript{}
	}
	b, err := json.Marshal(t)
	if err != nil {
		// []Turn of plain strings always marshals
		return "[]"
	}
	return string(b)
}
