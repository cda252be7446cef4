package usecase

import "github.com/xavierca1/ligue-callbridge/internal/entity"

const (
	abandonedMaxDurationSecs = 60
	abandonedMaxFields       = 1
)

// ClassifyOutcome labels a processed call. First match wins:
// empty transcript is voicemail, a short call with at most one identity field
// is abandoned, anything else is completed.
func ClassifyOutcome(transcript entity.Transcript, durationSecs int, record entity.LeadRecord) entity.CallStatus {
	if transcript.IsEmpty() {
		return entity.CallStatusVoicemail
	}

	if record.IdentityFieldCount() <= abandonedMaxFields && durationSecs < abandonedMaxDurationSecs {
		return entity.CallStatusAbandoned
	}

	return entity.CallStatusCompleted
}
