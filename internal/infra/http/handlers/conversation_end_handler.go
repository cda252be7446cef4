package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-callbridge/internal/entity"
	"github.com/xavierca1/ligue-callbridge/internal/usecase"
)

const maxWebhookBody = 5 << 20

// CallAcceptor is the synchronous phase of the ingestion pipeline.
type CallAcceptor interface {
	Accept(ctx context.Context, event entity.CallEvent) usecase.AcceptOutput
}

type ConversationEndHandler struct {
	Pipeline CallAcceptor
	Verifier *SignatureVerifier
}

func NewConversationEndHandler(pipeline CallAcceptor, verifier *SignatureVerifier) *ConversationEndHandler {
	return &ConversationEndHandler{
		Pipeline: pipeline,
		Verifier: verifier,
	}
}

type conversationEndResponse struct {
	Received bool   `json:"received"`
	Action   string `json:"action,omitempty"`
}

// Handle acknowledges the webhook as soon as the event is handed off.
// Processing failures never change the response.
func (h *ConversationEndHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_body"})
		return
	}

	if h.Verifier != nil {
		if err := h.Verifier.Verify(r.Header.Get(SignatureHeader), body); err != nil {
			zap.L().Warn("webhook signature rejected", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_signature"})
			return
		}
	}

	event, err := entity.ParseCallEvent(body)
	if err != nil {
		zap.L().Warn("conversation-end payload is not valid json", zap.Int("bytes", len(body)))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_json"})
		return
	}

	out := h.Pipeline.Accept(r.Context(), event)

	resp := conversationEndResponse{Received: true}
	if out.Action != usecase.ActionAccepted {
		resp.Action = string(out.Action)
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
