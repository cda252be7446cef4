package mail

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/xavierca1/ligue-callbridge/internal/entity"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	f.sent = append(f.sent, m...)
	return f.err
}

func strPtr(s string) *string { return &s }

func newTestSender(d dialer) *EmailSender {
	s := NewEmailSender("smtp.test", 587, "u", "p", "bot@callbridge.test", "sales@callbridge.test")
	s.dialer = d
	return s
}

func TestNotifyNewLead_RendersLead(t *testing.T) {
	d := &fakeDialer{}
	lead := &entity.LeadEntry{
		ID:              "lead-1",
		FullName:        strPtr("John Smith"),
		Email:           strPtr("john@x.com"),
		Company:         strPtr("Acme"),
		Budget:          strPtr("$10k"),
		CallDurationSec: 90,
		CalledAt:        time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	require.NoError(t, newTestSender(d).NotifyNewLead(context.Background(), lead))
	require.Len(t, d.sent, 1)

	m := d.sent[0]
	assert.Equal(t, []string{"sales@callbridge.test"}, m.GetHeader("To"))
	assert.Equal(t, []string{"john@x.com"}, m.GetHeader("Reply-To"))
	assert.Equal(t, []string{"New lead: John Smith (Acme)"}, m.GetHeader("Subject"))

	var raw bytes.Buffer
	_, err := m.WriteTo(&raw)
	require.NoError(t, err)
	assert.Contains(t, raw.String(), "$10k")
	assert.Contains(t, raw.String(), "90s")
}

func TestNotifyNewLead_SMTPError(t *testing.T) {
	d := &fakeDialer{err: errors.New("connection refused")}

	err := newTestSender(d).NotifyNewLead(context.Background(), &entity.LeadEntry{ID: "x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp send")
}

func TestBuildMessage_AnonymousLead(t *testing.T) {
	m, err := newTestSender(&fakeDialer{}).buildMessage(&entity.LeadEntry{})
	require.NoError(t, err)
	assert.Equal(t, []string{"New lead"}, m.GetHeader("Subject"))
	assert.Empty(t, m.GetHeader("Reply-To"))
}
