package usecase

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/ligue-callbridge/internal/entity"
)

type MockCompletionClient struct {
	mock.Mock
}

func (m *MockCompletionClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, transcript entity.Transcript) entity.LeadRecord {
	args := m.Called(ctx, transcript)
	return args.Get(0).(entity.LeadRecord)
}

type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) Insert(ctx context.Context, lead *entity.LeadEntry) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

type MockLeadPublisher struct {
	mock.Mock
}

func (m *MockLeadPublisher) PublishLeadCaptured(ctx context.Context, lead *entity.LeadEntry) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

type MockDedupStore struct {
	mock.Mock
}

func (m *MockDedupStore) Seen(ctx context.Context, conversationID string) (bool, error) {
	args := m.Called(ctx, conversationID)
	return args.Bool(0), args.Error(1)
}

type MockCRMClient struct {
	mock.Mock
}

func (m *MockCRMClient) CreateLead(ctx context.Context, lead *entity.LeadEntry) (int, error) {
	args := m.Called(ctx, lead)
	return args.Int(0), args.Error(1)
}

type MockLeadNotifier struct {
	mock.Mock
}

func (m *MockLeadNotifier) NotifyNewLead(ctx context.Context, lead *entity.LeadEntry) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

// spyRecorder counts Recorder calls.
type spyRecorder struct {
	mu        sync.Mutex
	received  map[string]int
	extractFx map[string]int
	persisted map[string]int
	retried   int
	failed    int
}

func newSpyRecorder() *spyRecorder {
	return &spyRecorder{
		received:  map[string]int{},
		extractFx: map[string]int{},
		persisted: map[string]int{},
	}
}

func (s *spyRecorder) CallReceived(action string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received[action]++
}

func (s *spyRecorder) ExtractionFailed(stage string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extractFx[stage]++
}

func (s *spyRecorder) LeadPersisted(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persisted[status]++
}

func (s *spyRecorder) PersistRetried() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retried++
}

func (s *spyRecorder) PersistFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed++
}

// recordingRunner captures jobs instead of running them.
type recordingRunner struct {
	jobs []func(ctx context.Context)
	ctxs []context.Context
}

func (r *recordingRunner) Go(ctx context.Context, _ string, fn func(ctx context.Context)) {
	r.ctxs = append(r.ctxs, ctx)
	r.jobs = append(r.jobs, fn)
}

func strPtr(s string) *string {
	return &s
}

func sampleTranscript() entity.Transcript {
	return entity.Transcript{
		{Role: entity.RoleAgent, Message: "Hi"},
		{Role: entity.RoleCaller, Message: "John Smith, john@x.com, Acme, need a chatbot, $10k, next month"},
	}
}
