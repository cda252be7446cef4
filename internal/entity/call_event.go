package entity

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
)

var ErrInvalidPayload = eris.New("call event: body is not valid JSON")

// CallEvent is one post-call notification from the voice platform.
// It is never persisted directly, only the LeadEntry derived from it.
type CallEvent struct {
	ConversationID  string         `json:"conversation_id"`
	Transcript      Transcript     `json:"transcript"`
	DurationSeconds int            `json:"duration_seconds"`
	StartedAt       time.Time      `json:"started_at,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// ParseCallEvent reads a webhook body in either the enveloped shape
// ({"type": ..., "data": {...}}) or the flat shape. Fields that are missing or
// carry an unexpected type fall back to their zero value; only a body that is
// not JSON at all is an error.
func ParseCallEvent(body []byte) (CallEvent, error) {
	if !gjson.ValidBytes(body) {
		return CallEvent{}, ErrInvalidPayload
	}

	root := gjson.ParseBytes(body)
	if data := root.Get("data"); data.IsObject() {
		root = data
	}

	event := CallEvent{
		ConversationID:  strings.TrimSpace(firstPresent(root, "conversation_id", "conversationId").String()),
		Transcript:      parseTranscript(root.Get("transcript")),
		DurationSeconds: parseDuration(firstPresent(root, "metadata.call_duration_secs", "call_duration_secs", "duration_seconds", "durationSeconds")),
	}

	if ts := root.Get("metadata.start_time_unix_secs"); ts.Type == gjson.Number && ts.Int() > 0 {
		event.StartedAt = time.Unix(ts.Int(), 0).UTC()
	}

	if md := root.Get("metadata"); md.IsObject() {
		if m, ok := md.Value().(map[string]any); ok {
			event.Metadata = m
		}
	}

	return event, nil
}

// ParseTranscript reads a bare transcript array, the form stored and logged
// as raw_transcript.
func ParseTranscript(body []byte) (Transcript, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidPayload
	}
	raw := gjson.ParseBytes(body)
	if !raw.IsArray() {
		return nil, eris.New("transcript: expected a JSON array")
	}
	return parseTranscript(raw), nil
}

func firstPresent(root gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if r := root.Get(p); r.Exists() && r.Type != gjson.Null {
			return r
		}
	}
	return gjson.Result{}
}

func parseTranscript(raw gjson.Result) Transcript {
	if !raw.IsArray() {
		return Transcript{}
	}

	items := raw.Array()
	transcript := make(Transcript, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		transcript = append(transcript, Turn{
			Role:    ParseRole(item.Get("role").String()),
			Message: item.Get("message").String(),
		})
	}
	return transcript
}

func parseDuration(raw gjson.Result) int {
	var secs int
	switch raw.Type {
	case gjson.Number:
		secs = int(raw.Float())
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw.Str), 64)
		if err == nil {
			secs = int(f)
		}
	}
	if secs < 0 {
		return 0
	}
	return secs
}
