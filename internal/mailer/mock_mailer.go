package mailer

import (
	"sync"
)

type Email struct {
	Recipient    string
	TemplateFile string
	Data         any
}

// MockMailer records outgoing mail instead of delivering it. A non-nil Err
// is returned from every Send after recording the attempt.
type MockMailer struct {
	mu     sync.RWMutex
	emails []Email
	sent   chan struct{}
	Err    error
}

func NewMockMailer() *MockMailer {
	return &MockMailer{
		emails: make([]Email, 0),
		sent:   make(chan struct{}, 64),
	}
}

func (m *MockMailer) Send(recipient, templateFile string, data any) error {
	m.mu.Lock()
	m.emails = append(m.emails, Email{
		Recipient:    recipient,
		TemplateFile: templateFile,
		Data:         data,
	})
	m.mu.Unlock()

	select {
	case m.sent <- struct{}{}:
	default:
	}

	return m.Err
}

// Sent is signalled once per Send, for callers that mail from a goroutine.
func (m *MockMailer) Sent() <-chan struct{} {
	return m.sent
}

func (m *MockMailer) GetSentEmails() []Email {
	m.mu.RLock()
	defer m.mu.RUnlock()

	emails := make([]Email, len(m.emails))
	copy(emails, m.emails)
	return emails
}

func (m *MockMailer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.emails = make([]Email, 0)

	for {
		select {
		case <-m.sent:
		default:
			return
		}
	}
}
