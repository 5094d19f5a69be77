package mailroom

import "context"

// MailService is the mail transport
type MailService interface {
	Send(ctx context.Context, m *Message) error
}

// Message is a single email. HTML, when set, is attached as an alternative to Text.
type Message struct {
	From    string
	To      []string
	Bcc     []string
	Subject string
	Text    string
	HTML    string
}

// Recipients returns every envelope recipient of the message.
func (m *Message) Recipients() []string {
	rcpts := make([]string, 0, len(m.To)+len(m.Bcc))
	rcpts = append(rcpts, m.To...)
	return append(rcpts, m.Bcc...)
}

// Renderer renders a named template with data
type Renderer interface {
	Render(name string, data interface{}) (string, error)
}

// NotificationService sends the transactional emails of the site
type NotificationService interface {
	SendWelcome(ctx context.Context, s *Subscriber, siteURL string) error
	SendNewSubscriber(ctx context.Context, s *Subscriber, activeCount int) error
	SendContactNotification(ctx context.Context, m *ContactMessage) error
	SendContactConfirmation(ctx context.Context, m *ContactMessage) error
}
