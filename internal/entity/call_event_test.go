package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCallEvent_Enveloped(t *testing.T) {
	body := []byte(`{
		"type": "post_call_transcription",
		"data": {
			"conversation_id": "conv_123",
			"transcript": [
				{"role": "agent", "message": "Hi, thanks for calling"},
				{"role": "user", "message": "Hey, I need a chatbot"}
			],
			"metadata": {"call_duration_secs": 42, "start_time_unix_secs": 1760000000}
		}
	}`)

	event, err := ParseCallEvent(body)
	require.NoError(t, err)

	assert.Equal(t, "conv_123", event.ConversationID)
	assert.Equal(t, 42, event.DurationSeconds)
	assert.Equal(t, time.Unix(1760000000, 0).UTC(), event.StartedAt)
	require.Len(t, event.Transcript, 2)
	assert.Equal(t, RoleAgent, event.Transcript[0].Role)
	assert.Equal(t, RoleCaller, event.Transcript[1].Role)
	assert.Equal(t, "Hey, I need a chatbot", event.Transcript[1].Message)
	assert.Equal(t, float64(42), event.Metadata["call_duration_secs"])
}

func TestParseCallEvent_Flat(t *testing.T) {
	body := []byte(`{
		"conversation_id": "conv_flat",
		"transcript": [{"role": "agent", "message": "Hello"}],
		"metadata": {"call_duration_secs": "17"}
	}`)

	event, err := ParseCallEvent(body)
	require.NoError(t, err)

	assert.Equal(t, "conv_flat", event.ConversationID)
	assert.Equal(t, 17, event.DurationSeconds)
	assert.Len(t, event.Transcript, 1)
	assert.True(t, event.StartedAt.IsZero())
}

func TestParseCallEvent_DefensiveDefaults(t *testing.T) {
	cases := map[string]string{
		"empty object":         `{}`,
		"transcript is string": `{"transcript": "nope", "metadata": {"call_duration_secs": -5}}`,
		"data is not object":   `{"data": [1, 2, 3]}`,
		"metadata is array":    `{"metadata": [], "conversation_id": null}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			event, err := ParseCallEvent([]byte(body))
			require.NoError(t, err)
			assert.Empty(t, event.ConversationID)
			assert.Empty(t, event.Transcript)
			assert.Equal(t, 0, event.DurationSeconds)
		})
	}
}

func TestParseCallEvent_SkipsNonObjectTurnsAndNullMessages(t *testing.T) {
	body := []byte(`{"transcript": [
		"garbage",
		{"role": "agent", "message": null},
		{"role": "user"}
	]}`)

	event, err := ParseCallEvent(body)
	require.NoError(t, err)

	require.Len(t, event.Transcript, 2)
	assert.Equal(t, "", event.Transcript[0].Message)
	assert.Equal(t, RoleCaller, event.Transcript[1].Role)
}

func TestParseCallEvent_FractionalDuration(t *testing.T) {
	event, err := ParseCallEvent([]byte(`{"metadata": {"call_duration_secs": 59.9}}`))
	require.NoError(t, err)
	assert.Equal(t, 59, event.DurationSeconds)
}

func TestParseCallEvent_InvalidJSON(t *testing.T) {
	_, err := ParseCallEvent([]byte(`{"transcript": [`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestParseCallEvent_TopLevelDurationAndCamelCase(t *testing.T) {
	event, err := ParseCallEvent([]byte(`{"conversationId": "c-9", "durationSeconds": 31, "transcript": []}`))
	require.NoError(t, err)
	assert.Equal(t, "c-9", event.ConversationID)
	assert.Equal(t, 31, event.DurationSeconds)

	event, err = ParseCallEvent([]byte(`{"call_duration_secs": 12, "metadata": {"call_duration_secs": null}}`))
	require.NoError(t, err)
	assert.Equal(t, 12, event.DurationSeconds)
}

func TestParseTranscript_RoundTripsSerialize(t *testing.T) {
	original := Transcript{
		{Role: RoleAgent, Message: "Hi, how can I help?"},
		{Role: RoleCaller, Message: "John Smith from Acme."},
	}

	parsed, err := ParseTranscript([]byte(original.Serialize()))

	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

func TestParseTranscript_Rejects(t *testing.T) {
	_, err := ParseTranscript([]byte(`{"transcript": []}`))
	assert.Error(t, err)

	_, err = ParseTranscript([]byte(`[{"role":`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}
