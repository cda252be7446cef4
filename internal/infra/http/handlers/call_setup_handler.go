package handlers

import (
	"bytes"
	"context"
	"encoding/xml"
	"net/http"

	"go.uber.org/zap"
)

const unavailableMessage = "Sorry, we can't take your call right now. Please try again later."

// SignedURLProvider returns a short-lived websocket URL for the voice agent.
type SignedURLProvider interface {
	SignedURL(ctx context.Context) (string, error)
}

// CallSetupHandler answers the telephony provider's inbound-call webhook
// with TwiML that streams the call to the voice agent.
type CallSetupHandler struct {
	Agent SignedURLProvider
}

func NewCallSetupHandler(agent SignedURLProvider) *CallSetupHandler {
	return &CallSetupHandler{Agent: agent}
}

type twimlResponse struct {
	XMLName xml.Name      `xml:"Response"`
	Connect *twimlConnect `xml:"Connect,omitempty"`
	Say     string        `xml:"Say,omitempty"`
	Hangup  *struct{}     `xml:"Hangup,omitempty"`
}

type twimlConnect struct {
	Stream twimlStream `xml:"Stream"`
}

type twimlStream struct {
	URL        string           `xml:"url,attr"`
	Parameters []twimlParameter `xml:"Parameter,omitempty"`
}

type twimlParameter struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

func (h *CallSetupHandler) Handle(w http.ResponseWriter, r *http.Request) {
	// Form errors only mean there are no call parameters to forward.
	_ = r.ParseForm()
	callSid := r.PostFormValue("CallSid")
	caller := r.PostFormValue("From")

	logger := zap.L().With(zap.String("call_sid", callSid))

	signedURL, err := h.Agent.SignedURL(r.Context())
	if err != nil {
		logger.Error("could not get signed agent url, hanging up", zap.Error(err))
		writeTwiML(w, twimlResponse{Say: unavailableMessage, Hangup: &struct{}{}})
		return
	}

	stream := twimlStream{URL: signedURL}
	if caller != "" {
		stream.Parameters = append(stream.Parameters, twimlParameter{Name: "caller_number", Value: caller})
	}
	if callSid != "" {
		stream.Parameters = append(stream.Parameters, twimlParameter{Name: "call_sid", Value: callSid})
	}

	logger.Info("inbound call connected to voice agent")
	writeTwiML(w, twimlResponse{Connect: &twimlConnect{Stream: stream}})
}

func writeTwiML(w http.ResponseWriter, resp twimlResponse) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(&buf).Encode(resp); err != nil {
		http.Error(w, "twiml encode failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
