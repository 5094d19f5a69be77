package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/matcornic/hermes/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/annweb/mailroom"
)

const (
	welcomeSubject        = "🎉 Welcome to %s!"
	newSubscriberSubject  = "🎉 New Newsletter Subscriber!"
	contactSubject        = "📨 New Contact Form Message from %s"
	contactThanksSubject  = "✅ We've received your message!"
	dateLayout            = "2006-01-02 15:04"
	notProvided           = "Not provided"
	directSource          = "Direct"
	unsubscribePathFormat = "%s/unsubscribe/%s/"
)

type notificationService struct {
	mailer   mailroom.MailService
	from     string
	operator string
	product  hermes.Product
	log      zerolog.Logger
}

// NewNotificationService returns the transactional email sender. from is the sender
// address of every email and operator receives the site owner notifications.
func NewNotificationService(mailer mailroom.MailService, config *mailroom.Config, logger zerolog.Logger) mailroom.NotificationService {
	operator := config.Mail.Operator
	if operator == "" {
		operator = config.Mail.From
	}

	return &notificationService{
		mailer:   mailer,
		from:     config.Mail.From,
		operator: operator,
		product: hermes.Product{
			Name: config.Newsletter.Product.Name,
			Link: config.Newsletter.Product.Link,
		},
		log: logger.With().Str("component", "notify").Logger(),
	}
}

// SendWelcome sends the welcome email with the unsubscribe link of s
func (ns *notificationService) SendWelcome(ctx context.Context, s *mailroom.Subscriber, siteURL string) error {
	siteURL = strings.TrimRight(siteURL, "/")
	h := ns.hermes(siteURL)

	email := hermes.Email{
		Body: hermes.Body{
			Title: "Welcome to our community!",
			Intros: []string{
				fmt.Sprintf("Thank you for subscribing to %s. We're thrilled to have you join our community!", ns.product.Name),
				"Here's what you can look forward to: exclusive content and early access, creative inspiration and insights, the latest updates and news, professional tips and guidance.",
			},
			Actions: []hermes.Action{
				{
					Instructions: "Visit us any time:",
					Button: hermes.Button{
						Color: "#667eea",
						Text:  "Visit the site",
						Link:  siteURL,
					},
				},
			},
			Outros: []string{
				fmt.Sprintf("No longer interested? Unsubscribe here: %s", UnsubscribeURL(siteURL, s.UnsubscribeToken)),
			},
			Signature: "Stay amazing",
		},
	}

	text, html, err := generate(h, email)
	if err != nil {
		return err
	}

	return ns.mailer.Send(ctx, &mailroom.Message{
		From:    ns.from,
		To:      []string{s.Email},
		Subject: fmt.Sprintf(welcomeSubject, ns.product.Name),
		Text:    text,
		HTML:    html,
	})
}

// SendNewSubscriber notifies the operator about a new subscriber
func (ns *notificationService) SendNewSubscriber(ctx context.Context, s *mailroom.Subscriber, activeCount int) error {
	source := s.SourcePage
	if source == "" {
		source = directSource
	}

	var b strings.Builder
	b.WriteString("You have a new newsletter subscriber:\n\n")
	fmt.Fprintf(&b, "Email: %s\n", s.Email)
	fmt.Fprintf(&b, "Source: %s\n", source)
	fmt.Fprintf(&b, "Date: %s\n\n", s.DateSubscribed.Format(dateLayout))
	fmt.Fprintf(&b, "Total Active Subscribers: %d\n\n", activeCount)
	b.WriteString("---\nAutomated notification from your website\n")

	return ns.mailer.Send(ctx, &mailroom.Message{
		From:    ns.from,
		To:      []string{ns.operator},
		Subject: newSubscriberSubject,
		Text:    b.String(),
	})
}

// SendContactNotification forwards a contact message to the operator
func (ns *notificationService) SendContactNotification(ctx context.Context, m *mailroom.ContactMessage) error {
	phone := m.Phone
	if phone == "" {
		phone = notProvided
	}

	var b strings.Builder
	b.WriteString("You received a new message from your website:\n\n")
	fmt.Fprintf(&b, "Name: %s\n", m.FullName)
	fmt.Fprintf(&b, "Email: %s\n", m.Email)
	fmt.Fprintf(&b, "Phone: %s\n\n", phone)
	fmt.Fprintf(&b, "Message:\n%s\n\n", m.Message)
	b.WriteString("---\nThis message was auto-generated by your website.")

	return ns.mailer.Send(ctx, &mailroom.Message{
		From:    ns.from,
		To:      []string{ns.operator},
		Subject: fmt.Sprintf(contactSubject, m.FullName),
		Text:    b.String(),
	})
}

// SendContactConfirmation tells the sender that the message arrived
func (ns *notificationService) SendContactConfirmation(ctx context.Context, m *mailroom.ContactMessage) error {
	h := ns.hermes(ns.product.Link)

	email := hermes.Email{
		Body: hermes.Body{
			Name: m.FullName,
			Intros: []string{
				"Thank you for getting in touch. We've received your message and will get back to you as soon as possible.",
			},
			Dictionary: []hermes.Entry{
				{Key: "Your message", Value: m.Message},
			},
		},
	}

	text, html, err := generate(h, email)
	if err != nil {
		return err
	}

	return ns.mailer.Send(ctx, &mailroom.Message{
		From:    ns.from,
		To:      []string{m.Email},
		Subject: contactThanksSubject,
		Text:    text,
		HTML:    html,
	})
}

func (ns *notificationService) hermes(link string) hermes.Hermes {
	product := ns.product
	if link != "" {
		product.Link = link
	}
	return hermes.Hermes{Product: product}
}

// UnsubscribeURL returns the link that deactivates the subscription owning token
func UnsubscribeURL(siteURL, token string) string {
	return fmt.Sprintf(unsubscribePathFormat, strings.TrimRight(siteURL, "/"), token)
}

func generate(h hermes.Hermes, email hermes.Email) (text, html string, err error) {
	html, err = h.GenerateHTML(email)
	if err != nil {
		return "", "", errors.Errorf("failed to generate HTML email: %v", err)
	}

	text, err = h.GeneratePlainText(email)
	if err != nil {
		return "", "", errors.Errorf("failed to generate plain text email: %v", err)
	}

	return text, html, nil
}
