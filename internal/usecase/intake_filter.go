package usecase

import "github.com/xavierca1/ligue-callbridge/internal/entity"

// IntakePolicy rejects noise calls before any extraction work: short calls
// with almost no conversation.
type IntakePolicy struct {
	MinDurationSecs int
	MaxNoiseTurns   int
}

func DefaultIntakePolicy() IntakePolicy {
	return IntakePolicy{MinDurationSecs: 20, MaxNoiseTurns: 2}
}

// ShouldProcess is false only when the call is both shorter than
// MinDurationSecs and has at most MaxNoiseTurns turns.
func (p IntakePolicy) ShouldProcess(durationSecs int, transcript entity.Transcript) bool {
	if transcript.TurnCount() > p.MaxNoiseTurns {
		return true
	}
	return durationSecs >= p.MinDurationSecs
}

func ShouldProcess(durationSecs int, transcript entity.Transcript) bool {
	return DefaultIntakePolicy().ShouldProcess(durationSecs, transcript)
}
