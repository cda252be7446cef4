package mail

import (
	"bytes"
	"context"
	"html/template"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/xavierca1/ligue-callbridge/internal/entity"
)

const newLeadTemplate = `<h2>New lead from the voice agent</h2>
<table>
<tr><td>Name</td><td>{{or .Name "-"}}</td></tr>
<tr><td>Email</td><td>{{or .Email "-"}}</td></tr>
<tr><td>Company</td><td>{{or .Company "-"}}</td></tr>
<tr><td>Use case</td><td>{{or .UseCase "-"}}</td></tr>
<tr><td>Budget</td><td>{{or .Budget "-"}}</td></tr>
<tr><td>Timeline</td><td>{{or .Timeline "-"}}</td></tr>
<tr><td>Call duration</td><td>{{.DurationSecs}}s</td></tr>
<tr><td>Called at</td><td>{{.CalledAt}}</td></tr>
</table>
{{if .ConversationID}}<p>Conversation {{.ConversationID}}</p>{{end}}`

var newLeadTmpl = template.Must(template.New("new_lead").Parse(newLeadTemplate))

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

func NewEmailSender(host string, port int, user, password, from, salesTo string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		SalesTo:  salesTo,
		dialer:   gomail.NewDialer(host, port, user, password),
	}
}

// NotifyNewLead emails the sales inbox a summary of the lead.
func (s *EmailSender) NotifyNewLead(_ context.Context, lead *entity.LeadEntry) error {
	m, err := s.buildMessage(lead)
	if err != nil {
		return err
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return eris.Wrap(err, "mail: smtp send")
	}

	zap.L().Info("new lead email sent", zap.String("lead_id", lead.ID), zap.String("to", s.SalesTo))
	return nil
}

func (s *EmailSender) buildMessage(lead *entity.LeadEntry) (*gomail.Message, error) {
	data := LeadEmailData{
		Name:           str(lead.FullName),
		Email:          str(lead.Email),
		Company:        str(lead.Company),
		UseCase:        str(lead.UseCase),
		Budget:         str(lead.Budget),
		Timeline:       str(lead.Timeline),
		DurationSecs:   lead.CallDurationSec,
		ConversationID: lead.ConversationID,
		CalledAt:       lead.CalledAt.UTC().Format(time.RFC1123),
	}

	var body bytes.Buffer
	if err := newLeadTmpl.Execute(&body, data); err != nil {
		return nil, eris.Wrap(err, "mail: render template")
	}

	subject := "New lead"
	if data.Name != "" {
		subject += ": " + data.Name
	}
	if data.Company != "" {
		subject += " (" + data.Company + ")"
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.SalesTo)
	if data.Email != "" {
		m.SetHeader("Reply-To", data.Email)
	}
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body.String())
	return m, nil
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
