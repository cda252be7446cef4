package usecase

type AcceptAction string

const (
	ActionAccepted  AcceptAction = "accepted"
	ActionDiscarded AcceptAction = "discarded"
	ActionDuplicate AcceptAction = "duplicate"
)

type AcceptOutput struct {
	Action         AcceptAction `json:"action"`
	ConversationID string       `json:"conversation_id,omitempty"`
}
