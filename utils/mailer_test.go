package utils

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func newTestMailer(timeout time.Duration) *SMTPMailer {
	return NewSMTPMailer(MailerConfig{
		Host:      "smtp.example.com",
		Port:      587,
		FromEmail: "news@mailcast.io",
		FromName:  "Mailcast",
		Timeout:   timeout,
	})
}

func render(t *testing.T, m *gomail.Message) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestBuildMessage_PlainText(t *testing.T) {
	sm := newTestMailer(0)
	m, messageID := sm.buildMessage(Message{To: "ana@acme.com", Subject: "Hello", Text: "Hi Ana"})

	assert.True(t, strings.HasPrefix(messageID, "<"))
	assert.True(t, strings.HasSuffix(messageID, "@mailcast.io>"))
	assert.Equal(t, []string{messageID}, m.GetHeader("Message-ID"))
	assert.Equal(t, []string{"ana@acme.com"}, m.GetHeader("To"))

	raw := render(t, m)
	assert.Contains(t, raw, "Content-Type: text/plain")
	assert.NotContains(t, raw, "text/html")
	assert.Contains(t, raw, "Hi Ana")
	assert.Contains(t, raw, `"Mailcast" <news@mailcast.io>`)
}

func TestBuildMessage_SinglePlainPart(t *testing.T) {
	m, _ := newTestMailer(0).buildMessage(Message{To: "a@b.com", Subject: "s", Text: "<b>literal</b>"})

	raw := render(t, m)
	assert.Contains(t, raw, "Content-Type: text/plain")
	assert.NotContains(t, raw, "multipart/alternative")
	assert.NotContains(t, raw, "text/html")
}

func TestBuildMessage_UniqueMessageIDs(t *testing.T) {
	sm := newTestMailer(0)
	_, first := sm.buildMessage(Message{To: "a@b.com"})
	_, second := sm.buildMessage(Message{To: "a@b.com"})
	assert.NotEqual(t, first, second)
}

func TestSend_ReturnsMessageID(t *testing.T) {
	sm := newTestMailer(time.Second)
	var delivered *gomail.Message
	sm.deliver = func(m *gomail.Message) error {
		delivered = m
		return nil
	}

	id, err := sm.Send(context.Background(), Message{To: "a@b.com", Text: "x"})
	require.NoError(t, err)
	require.NotNil(t, delivered)
	assert.Equal(t, []string{id}, delivered.GetHeader("Message-ID"))
}

func TestSend_WrapsTransportError(t *testing.T) {
	sm := newTestMailer(time.Second)
	rejected := errors.New("554 rejected")
	sm.deliver = func(*gomail.Message) error { return rejected }

	id, err := sm.Send(context.Background(), Message{To: "a@b.com"})
	assert.Empty(t, id)
	assert.ErrorIs(t, err, rejected)
}

func TestSend_TimesOut(t *testing.T) {
	sm := newTestMailer(20 * time.Millisecond)
	release := make(chan struct{})
	defer close(release)
	sm.deliver = func(*gomail.Message) error {
		<-release
		return nil
	}

	start := time.Now()
	_, err := sm.Send(context.Background(), Message{To: "a@b.com"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestMailDomain(t *testing.T) {
	assert.Equal(t, "acme.com", mailDomain("news@acme.com"))
	assert.Equal(t, "localhost", mailDomain("no-at-sign"))
	assert.Equal(t, "localhost", mailDomain("trailing@"))
}
