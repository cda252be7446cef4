package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-callbridge/internal/entity"
	"github.com/xavierca1/ligue-callbridge/internal/resilience"
)

// ProcessCallUseCase is the ingestion pipeline. Accept is the synchronous
// phase run inside the webhook request; Process is the detached phase.
type ProcessCallUseCase struct {
	Extractor TranscriptExtractor
	Repo      entity.LeadRepositoryInterface
	Publisher LeadPublisher
	Dedup     DedupStore
	Runner    Runner
	Policy    IntakePolicy
	Retry     resilience.RetryConfig
	Recorder  Recorder

	now func() time.Time
}

func NewProcessCallUseCase(
	extractor TranscriptExtractor,
	repo entity.LeadRepositoryInterface,
	publisher LeadPublisher,
	dedup DedupStore,
	runner Runner,
	policy IntakePolicy,
	retry resilience.RetryConfig,
	recorder Recorder,
) *ProcessCallUseCase {
	if dedup == nil {
		dedup = NoopDedup{}
	}
	if runner == nil {
		runner = NewBackgroundRunner()
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &ProcessCallUseCase{
		Extractor: extractor,
		Repo:      repo,
		Publisher: publisher,
		Dedup:     dedup,
		Runner:    runner,
		Policy:    policy,
		Retry:     retry,
		Recorder:  recorder,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Accept applies the intake filter and dedup, then hands the event to the
// runner. It never waits for extraction or persistence.
func (uc *ProcessCallUseCase) Accept(ctx context.Context, event entity.CallEvent) AcceptOutput {
	out := AcceptOutput{ConversationID: event.ConversationID}
	logger := zap.L().With(zap.String("conversation_id", event.ConversationID))

	if !uc.Policy.ShouldProcess(event.DurationSeconds, event.Transcript) {
		logger.Info("call discarded by intake filter",
			zap.Int("duration_secs", event.DurationSeconds),
			zap.Int("turns", event.Transcript.TurnCount()),
		)
		uc.Recorder.CallReceived(string(ActionDiscarded))
		out.Action = ActionDiscarded
		return out
	}

	seen, err := uc.Dedup.Seen(ctx, event.ConversationID)
	if err != nil {
		logger.Warn("dedup check failed, processing anyway", zap.Error(err))
	} else if seen {
		logger.Info("duplicate conversation ignored")
		uc.Recorder.CallReceived(string(ActionDuplicate))
		out.Action = ActionDuplicate
		return out
	}

	uc.Recorder.CallReceived(string(ActionAccepted))
	uc.Runner.Go(context.WithoutCancel(ctx), "process_call", func(ctx context.Context) {
		_ = uc.Process(ctx, event)
	})

	out.Action = ActionAccepted
	return out
}

// Process extracts, classifies and stores one call. The returned error is
// already logged; it is a *PersistenceError when every insert attempt failed.
func (uc *ProcessCallUseCase) Process(ctx context.Context, event entity.CallEvent) error {
	logger := zap.L().With(zap.String("conversation_id", event.ConversationID))

	record := uc.Extractor.Extract(ctx, event.Transcript)
	status := ClassifyOutcome(event.Transcript, event.DurationSeconds, record)
	lead := entity.NewLeadEntry(event, record, status, uc.now())

	retry := uc.Retry
	retry.OnRetry = func(attempt int, err error, delay time.Duration) {
		uc.Recorder.PersistRetried()
		resilience.RetryLogger("insert_lead",
			zap.String("conversation_id", event.ConversationID),
			zap.String("lead_id", lead.ID),
		)(attempt, err, delay)
	}

	attempts := 0
	err := resilience.Do(ctx, retry, func(ctx context.Context) error {
		attempts++
		return uc.Repo.Insert(ctx, lead)
	})
	if err != nil {
		uc.Recorder.PersistFailed()
		// The transcript goes to the log so the call can be recovered by hand.
		logger.Error("lead persistence failed",
			zap.String("lead_id", lead.ID),
			zap.String("call_status", string(status)),
			zap.Int("attempts", attempts),
			zap.Int("duration_secs", event.DurationSeconds),
			zap.Any("lead", record),
			zap.String("raw_transcript", lead.RawTranscript),
			zap.Bool("aborted", ctx.Err() != nil),
			zap.Error(err),
		)
		return &PersistenceError{Attempts: attempts, Err: err}
	}

	uc.Recorder.LeadPersisted(string(status))
	logger.Info("lead persisted",
		zap.String("lead_id", lead.ID),
		zap.String("call_status", string(status)),
		zap.Int("identity_fields", record.IdentityFieldCount()),
		zap.Int("attempts", attempts),
	)

	if uc.Publisher != nil {
		if err := uc.Publisher.PublishLeadCaptured(ctx, lead); err != nil {
			logger.Warn("lead stored but fan-out publish failed", zap.String("lead_id", lead.ID), zap.Error(err))
		}
	}

	return nil
}
