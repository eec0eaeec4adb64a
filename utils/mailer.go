package utils

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// MailerConfig holds SMTP configuration
type MailerConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string

	// Timeout bounds a single DialAndSend call. Zero disables it.
	Timeout time.Duration
}

// SMTPMailer delivers composed messages through one SMTP relay
type SMTPMailer struct {
	dialer    *gomail.Dialer
	fromEmail string
	fromName  string
	timeout   time.Duration

	// deliver is swapped in tests
	deliver func(m *gomail.Message) error
}

func NewSMTPMailer(cfg MailerConfig) *SMTPMailer {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.TLSConfig = &tls.Config{ServerName: cfg.Host}

	sm := &SMTPMailer{
		dialer:    dialer,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		timeout:   cfg.Timeout,
	}
	sm.deliver = func(m *gomail.Message) error {
		return sm.dialer.DialAndSend(m)
	}
	return sm
}

// Send transmits msg and returns the Message-ID it was sent with.
func (sm *SMTPMailer) Send(ctx context.Context, msg Message) (string, error) {
	m, messageID := sm.buildMessage(msg)

	if sm.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, sm.timeout)
		defer cancel()
	}

	// gomail has no context support, the goroutine outlives a timed out call
	// until the dialer gives up on its own
	errCh := make(chan error, 1)
	go func() {
		errCh <- sm.deliver(m)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return "", fmt.Errorf("error sending email: %w", err)
		}
		return messageID, nil
	case <-ctx.Done():
		return "", fmt.Errorf("error sending email: %w", ctx.Err())
	}
}

func (sm *SMTPMailer) buildMessage(msg Message) (*gomail.Message, string) {
	messageID := fmt.Sprintf("<%s@%s>", uuid.New().String(), mailDomain(sm.fromEmail))

	m := gomail.NewMessage()
	m.SetAddressHeader("From", sm.fromEmail, sm.fromName)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", messageID)

	// Bodies are always plain text, see ComposeMessage
	m.SetBody("text/plain", msg.Text)

	return m, messageID
}

func mailDomain(address string) string {
	if _, domain, ok := strings.Cut(address, "@"); ok && domain != "" {
		return domain
	}
	return "localhost"
}
