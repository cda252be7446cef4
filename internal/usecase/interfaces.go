package usecase

import (
	"context"

	"github.com/xavierca1/ligue-callbridge/internal/entity"
)

// CompletionRequest is one structured-extraction call.
type CompletionRequest struct {
	Model       string
	Instruction string
	Input       string
}

// CompletionClient is the language-model backend. Implementations return the
// raw text content of the model's reply, or an error for transport failures
// and non-success statuses. They must not retry.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// TranscriptExtractor turns a transcript into a LeadRecord and never fails.
type TranscriptExtractor interface {
	Extract(ctx context.Context, transcript entity.Transcript) entity.LeadRecord
}

type LeadPublisher interface {
	PublishLeadCaptured(ctx context.Context, lead *entity.LeadEntry) error
}

// DedupStore reports whether a conversation was already accepted, marking it
// as seen when it was not.
type DedupStore interface {
	Seen(ctx context.Context, conversationID string) (bool, error)
}

type CRMClient interface {
	CreateLead(ctx context.Context, lead *entity.LeadEntry) (int, error)
}

type LeadNotifier interface {
	NotifyNewLead(ctx context.Context, lead *entity.LeadEntry) error
}

// Runner starts detached background work.
type Runner interface {
	Go(ctx context.Context, name string, fn func(ctx context.Context))
}

// Recorder receives pipeline counters. The Prometheus implementation lives in
// the http middleware package.
type Recorder interface {
	CallReceived(action string)
	ExtractionFailed(stage string)
	LeadPersisted(status string)
	PersistRetried()
	PersistFailed()
}

type noopRecorder struct{}

func (noopRecorder) CallReceived(string)     {}
func (noopRecorder) ExtractionFailed(string) {}
func (noopRecorder) LeadPersisted(string)    {}
func (noopRecorder) PersistRetried()         {}
func (noopRecorder) PersistFailed()          {}

type NoopDedup struct{}

func (NoopDedup) Seen(context.Context, string) (bool, error) { return false, nil }
