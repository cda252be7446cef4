package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type CallStatus string

const (
	CallStatusCompleted CallStatus = "completed"
	CallStatusAbandoned CallStatus = "abandoned"
	CallStatusVoicemail CallStatus = "voicemail"
)

func (s CallStatus) Valid() bool {
	switch s {
	case CallStatusCompleted, CallStatusAbandoned, CallStatusVoicemail:
		return true
	}
	return false
}

// LeadRecord holds the fields extracted from a transcript. A nil field means
// the caller never said it (or extraction failed).
type LeadRecord struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Company  *string `json:"company"`
	UseCase  *string `json:"use_case"`
	Budget   *string `json:"budget"`
	Timeline *string `json:"timeline"`
}

// EmptyLeadRecord is the fallback used whenever extraction cannot run or fails.
func EmptyLeadRecord() LeadRecord {
	return LeadRecord{}
}

// IdentityFieldCount counts the known fields among name, email, company and use case.
func (r LeadRecord) IdentityFieldCount() int {
	n := 0
	for _, f := range []*string{r.Name, r.Email, r.Company, r.UseCase} {
		if f != nil {
			n++
		}
	}
	return n
}

func (r LeadRecord) IsEmpty() bool {
	return r.IdentityFieldCount() == 0 && r.Budget == nil && r.Timeline == nil
}

// LeadEntry is the persisted row for one processed call.
type LeadEntry struct {
	ID              string     `json:"id"`
	ConversationID  string     `json:"conversation_id,omitempty"`
	FullName        *string    `json:"full_name"`
	Email           *string    `json:"email"`
	Company         *string    `json:"company"`
	UseCase         *string    `json:"use_case"`
	Budget          *string    `json:"budget"`
	Timeline        *string    `json:"timeline"`
	RawTranscript   string     `json:"raw_transcript"`
	CallDurationSec int        `json:"call_duration_sec"`
	CallStatus      CallStatus `json:"call_status"`
	CalledAt        time.Time  `json:"called_at"`
	CreatedAt       time.Time  `json:"created_at"`
}

func NewLeadEntry(event CallEvent, record LeadRecord, status CallStatus, now time.Time) *LeadEntry {
	calledAt := now
	if !event.StartedAt.IsZero() {
		calledAt = event.StartedAt
	}

	return &LeadEntry{
		ID:              uuid.New().String(),
		ConversationID:  event.ConversationID,
		FullName:        record.Name,
		Email:           record.Email,
		Company:         record.Company,
		UseCase:         record.UseCase,
		Budget:          record.Budget,
		Timeline:        record.Timeline,
		RawTranscript:   event.Transcript.Serialize(),
		CallDurationSec: event.DurationSeconds,
		CallStatus:      status,
		CalledAt:        calledAt,
		CreatedAt:       now,
	}
}

type LeadRepositoryInterface interface {
	Insert(ctx context.Context, lead *LeadEntry) error
}

// LeadStatsRepository is the read side used by the stats worker.
type LeadStatsRepository interface {
	CountByStatusSince(ctx context.Context, since time.Time) (map[CallStatus]int, error)
}
