package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xavierca1/ligue-callbridge/internal/entity"
)

func TestClassifyOutcome_EmptyTranscriptIsVoicemail(t *testing.T) {
	full := entity.LeadRecord{
		Name:    strPtr("Ana"),
		Email:   strPtr("ana@x.com"),
		Company: strPtr("Acme"),
		UseCase: strPtr("bot"),
	}

	assert.Equal(t, entity.CallStatusVoicemail, ClassifyOutcome(nil, 0, entity.EmptyLeadRecord()))
	assert.Equal(t, entity.CallStatusVoicemail, ClassifyOutcome(entity.Transcript{}, 600, full))
}

func TestClassifyOutcome_ShortCallWithOneFieldIsAbandoned(t *testing.T) {
	record := entity.LeadRecord{Name: strPtr("John")}
	assert.Equal(t, entity.CallStatusAbandoned, ClassifyOutcome(sampleTranscript(), 45, record))
}

func TestClassifyOutcome_LongCallWithNoFieldsIsCompleted(t *testing.T) {
	assert.Equal(t, entity.CallStatusCompleted, ClassifyOutcome(sampleTranscript(), 90, entity.EmptyLeadRecord()))
}

func TestClassifyOutcome_ShortCallWithTwoFieldsIsCompleted(t *testing.T) {
	record := entity.LeadRecord{Name: strPtr("John"), Email: strPtr("john@x.com")}
	assert.Equal(t, entity.CallStatusCompleted, ClassifyOutcome(sampleTranscript(), 30, record))
}

func TestClassifyOutcome_BudgetAndTimelineDoNotCount(t *testing.T) {
	record := entity.LeadRecord{Name: strPtr("John"), Budget: strPtr("$10k"), Timeline: strPtr("soon")}
	assert.Equal(t, entity.CallStatusAbandoned, ClassifyOutcome(sampleTranscript(), 59, record))
	assert.Equal(t, entity.CallStatusCompleted, ClassifyOutcome(sampleTranscript(), 60, record))
}

func TestClassifyOutcome_Deterministic(t *testing.T) {
	record := entity.LeadRecord{Company: strPtr("Acme")}
	first := ClassifyOutcome(sampleTranscript(), 50, record)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, ClassifyOutcome(sampleTranscript(), 50, record))
	}
}
