package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-callbridge/internal/entity"
	"github.com/xavierca1/ligue-callbridge/internal/usecase"
)

type MockCallAcceptor struct {
	mock.Mock
}

func (m *MockCallAcceptor) Accept(ctx context.Context, event entity.CallEvent) usecase.AcceptOutput {
	args := m.Called(ctx, event)
	return args.Get(0).(usecase.AcceptOutput)
}

type stubSigner struct {
	url string
	err error
}

func (s stubSigner) SignedURL(context.Context) (string, error) {
	return s.url, s.err
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubConn struct{ closed bool }

func (s stubConn) IsClosed() bool { return s.closed }

const envelopeBody = `{
	"type": "post_call_transcription",
	"data": {
		"conversation_id": "conv-42",
		"transcript": [
			{"role": "agent", "message": "Hi"},
			{"role": "user", "message": "John Smith, john@x.com, Acme, need a chatbot, $10k, next month"}
		],
		"metadata": {"call_duration_secs": 90}
	}
}`

func postConversationEnd(h *ConversationEndHandler, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/conversation-end", strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	h.Handle(w, req)
	return w
}

func TestConversationEnd_AcceptedReturnsReceived(t *testing.T) {
	pipeline := new(MockCallAcceptor)
	pipeline.On("Accept", mock.Anything, mock.MatchedBy(func(e entity.CallEvent) bool {
		return e.ConversationID == "conv-42" &&
			e.DurationSeconds == 90 &&
			e.Transcript.TurnCount() == 2 &&
			e.Transcript[1].Role == entity.RoleCaller
	})).Return(usecase.AcceptOutput{Action: usecase.ActionAccepted})

	w := postConversationEnd(NewConversationEndHandler(pipeline, nil), envelopeBody, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
	pipeline.AssertExpectations(t)
}

func TestConversationEnd_FlatShape(t *testing.T) {
	pipeline := new(MockCallAcceptor)
	pipeline.On("Accept", mock.Anything, mock.MatchedBy(func(e entity.CallEvent) bool {
		return e.ConversationID == "conv-flat" && e.DurationSeconds == 30
	})).Return(usecase.AcceptOutput{Action: usecase.ActionAccepted})

	body := `{"conversation_id":"conv-flat","transcript":[{"role":"agent","message":"Hello"}],"call_duration_secs":30}`
	w := postConversationEnd(NewConversationEndHandler(pipeline, nil), body, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	pipeline.AssertExpectations(t)
}

func TestConversationEnd_DiscardedAndDuplicate(t *testing.T) {
	for _, action := range []usecase.AcceptAction{usecase.ActionDiscarded, usecase.ActionDuplicate} {
		pipeline := new(MockCallAcceptor)
		pipeline.On("Accept", mock.Anything, mock.Anything).Return(usecase.AcceptOutput{Action: action})

		w := postConversationEnd(NewConversationEndHandler(pipeline, nil), `{}`, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"received":true,"action":"`+string(action)+`"}`, w.Body.String())
	}
}

func TestConversationEnd_InvalidJSON(t *testing.T) {
	pipeline := new(MockCallAcceptor)

	w := postConversationEnd(NewConversationEndHandler(pipeline, nil), `{"data": [`, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid_json"}`, w.Body.String())
	pipeline.AssertNotCalled(t, "Accept", mock.Anything, mock.Anything)
}

func TestConversationEnd_Signature(t *testing.T) {
	secret := "wsec_test"
	verifier := NewSignatureVerifier(secret)
	now := time.Unix(1767225600, 0)
	verifier.now = func() time.Time { return now }

	pipeline := new(MockCallAcceptor)
	pipeline.On("Accept", mock.Anything, mock.Anything).Return(usecase.AcceptOutput{Action: usecase.ActionAccepted})
	h := NewConversationEndHandler(pipeline, verifier)

	t.Run("valid", func(t *testing.T) {
		ts := strconv.FormatInt(now.Unix(), 10)
		header := http.Header{}
		header.Set(SignatureHeader, "t="+ts+",v0="+Sign(secret, ts, []byte(envelopeBody)))

		w := postConversationEnd(h, envelopeBody, header)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing", func(t *testing.T) {
		w := postConversationEnd(h, envelopeBody, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"invalid_signature"}`, w.Body.String())
	})

	t.Run("wrong secret", func(t *testing.T) {
		ts := strconv.FormatInt(now.Unix(), 10)
		header := http.Header{}
		header.Set(SignatureHeader, "t="+ts+",v0="+Sign("other", ts, []byte(envelopeBody)))

		w := postConversationEnd(h, envelopeBody, header)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("tampered body", func(t *testing.T) {
		ts := strconv.FormatInt(now.Unix(), 10)
		header := http.Header{}
		header.Set(SignatureHeader, "t="+ts+",v0="+Sign(secret, ts, []byte(envelopeBody)))

		w := postConversationEnd(h, strings.Replace(envelopeBody, "90", "900", 1), header)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestSignatureVerifier_Tolerance(t *testing.T) {
	v := NewSignatureVerifier("s")
	now := time.Unix(1767225600, 0)
	v.now = func() time.Time { return now }
	body := []byte(`{}`)

	old := strconv.FormatInt(now.Add(-31*time.Minute).Unix(), 10)
	assert.ErrorIs(t, v.Verify("t="+old+",v0="+Sign("s", old, body), body), ErrStaleSignature)

	recent := strconv.FormatInt(now.Add(-29*time.Minute).Unix(), 10)
	assert.NoError(t, v.Verify("t="+recent+",v0="+Sign("s", recent, body), body))

	assert.ErrorIs(t, v.Verify("", body), ErrMissingSignature)
	assert.ErrorIs(t, v.Verify("garbage", body), ErrInvalidSignature)
	assert.ErrorIs(t, v.Verify("t=abc,v0=00", body), ErrInvalidSignature)
}

func TestCallSetup_ConnectsStream(t *testing.T) {
	h := NewCallSetupHandler(stubSigner{url: "wss://api.elevenlabs.io/v1/convai/conversation?agent_id=a&conversation_signature=x"})

	form := url.Values{"CallSid": {"CA123"}, "From": {"+15551234567"}}
	req := httptest.NewRequest(http.MethodPost, "/incoming-call", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	h.Handle(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/xml", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, `<Connect><Stream url="wss://api.elevenlabs.io/v1/convai/conversation?agent_id=a&amp;conversation_signature=x">`)
	assert.Contains(t, body, `<Parameter name="caller_number" value="+15551234567"></Parameter>`)
	assert.NotContains(t, body, "<Hangup>")
}

func TestCallSetup_FailureHangsUp(t *testing.T) {
	h := NewCallSetupHandler(stubSigner{err: errors.New("401 unauthorized")})

	req := httptest.NewRequest(http.MethodPost, "/incoming-call", nil)
	w := httptest.NewRecorder()
	h.Handle(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<Say>")
	assert.Contains(t, body, "<Hangup></Hangup>")
	assert.NotContains(t, body, "<Connect>")
}

func TestHealth_AllHealthy(t *testing.T) {
	h := NewHealthHandler(stubPinger{}, stubConn{}, nil, true)

	w := httptest.NewRecorder()
	h.Handle(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "healthy", resp.Dependencies["database"])
	assert.Equal(t, "healthy", resp.Dependencies["rabbitmq"])
	assert.Equal(t, "not configured", resp.Dependencies["redis"])
	assert.Equal(t, "configured", resp.Dependencies["extraction"])
}

func TestHealth_DegradedWhenDatabaseDown(t *testing.T) {
	h := NewHealthHandler(stubPinger{err: errors.New("connection refused")}, nil, nil, false)

	w := httptest.NewRecorder()
	h.Handle(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Contains(t, resp.Dependencies["database"], "unhealthy")
}

func TestHealth_DegradedWhenBrokerClosed(t *testing.T) {
	h := NewHealthHandler(stubPinger{}, stubConn{closed: true}, stubPinger{}, true)

	w := httptest.NewRecorder()
	h.Handle(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
