package mail

// LeadEmailData feeds the new-lead template. Empty strings render as "-".
type LeadEmailData struct {
	Name           string
	Email          string
	Company        string
	UseCase        string
	Budget         string
	Timeline       string
	DurationSecs   int
	ConversationID string
	CalledAt       string
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	SalesTo  string

	dialer dialer
}
