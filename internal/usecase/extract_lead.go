package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-callbridge/internal/entity"
)

const DefaultExtractionModel = "gpt-4o-mini"

const extractionInstruction = `You read transcripts of sales qualification phone calls and extract lead details.

Return ONLY a JSON object with exactly these keys:
- "name": the caller's full name
- "email": the caller's email address
- "company": the caller's company name, or "Individual" if they are not calling for a company
- "use_case": a short description of the problem or goal they want solved
- "budget": the budget range they mentioned, or "unsure" if they discussed it but gave no figure
- "timeline": when they want to start

Use null for any field the caller never provided. Do not guess. No markdown, no commentary.`

// LeadExtractor issues a single completion request per transcript and falls
// back to an all-null record on any failure.
type LeadExtractor struct {
	Client   CompletionClient
	Model    string
	Timeout  time.Duration
	Recorder Recorder
}

func NewLeadExtractor(client CompletionClient, model string, timeout time.Duration, recorder Recorder) *LeadExtractor {
	if model == "" {
		model = DefaultExtractionModel
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &LeadExtractor{
		Client:   client,
		Model:    model,
		Timeout:  timeout,
		Recorder: recorder,
	}
}

func (e *LeadExtractor) Extract(ctx context.Context, transcript entity.Transcript) entity.LeadRecord {
	if transcript.IsEmpty() {
		return entity.EmptyLeadRecord()
	}
	if e.Client == nil {
		e.fail(&ExtractionError{Stage: StageRequest, Err: eris.New("no extraction client configured")}, transcript)
		return entity.EmptyLeadRecord()
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	text, err := e.Client.Complete(ctx, CompletionRequest{
		Model:       e.Model,
		Instruction: extractionInstruction,
		Input:       transcript.Flatten(),
	})
	if err != nil {
		e.fail(&ExtractionError{Stage: StageRequest, Err: err}, transcript)
		return entity.EmptyLeadRecord()
	}

	record, err := ParseLeadRecord(text)
	if err != nil {
		e.fail(&ExtractionError{Stage: StageParse, Err: err}, transcript)
		return entity.EmptyLeadRecord()
	}

	return record
}

func (e *LeadExtractor) fail(err *ExtractionError, transcript entity.Transcript) {
	e.Recorder.ExtractionFailed(err.Stage)
	zap.L().Error("lead extraction failed, continuing with empty record",
		zap.String("stage", err.Stage),
		zap.String("model", e.Model),
		zap.Int("turns", transcript.TurnCount()),
		zap.Error(err),
	)
}

// ParseLeadRecord merges the recognised keys of a model response over the
// all-null record. Missing keys stay nil.
func ParseLeadRecord(text string) (entity.LeadRecord, error) {
	cleaned := cleanJSON(text)
	if cleaned == "" {
		return entity.EmptyLeadRecord(), eris.New("empty extraction response")
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return entity.EmptyLeadRecord(), eris.Wrap(err, "decode extraction response")
	}

	record := entity.EmptyLeadRecord()
	record.Name = normalizeField(firstKey(raw, "name", "full_name", "fullName"))
	record.Email = normalizeField(raw["email"])
	record.Company = normalizeField(raw["company"])
	record.UseCase = normalizeField(firstKey(raw, "use_case", "useCase"))
	record.Budget = normalizeField(raw["budget"])
	record.Timeline = normalizeField(raw["timeline"])
	return record, nil
}

func firstKey(raw map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// cleanJSON strips markdown fences and surrounding prose from a model reply.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
