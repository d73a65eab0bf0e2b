package mailer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/adeneu/portfolio-web/config"
	"github.com/adeneu/portfolio-web/internal/contact"
	"github.com/adeneu/portfolio-web/internal/templatemanager"
	"github.com/adeneu/portfolio-web/locale"
	"github.com/gofiber/fiber/v2"
	"github.com/wneessen/go-mail"
)

// Mailer relays contact form messages to the site owner. With delivery
// disabled, messages are only logged.
type Mailer struct {
	mailClient  *mail.Client
	tm          *templatemanager.TemplateManager
	mailAddress string
	publicName  string
	recipient   string
	l           *locale.LocaleConfig
	logger      *slog.Logger
}

var _ contact.Sender = &Mailer{}

func NewMailer(cfg *config.MailConfig, templates fs.FS, localization map[string]*locale.LocaleConfig, logger *slog.Logger) (*Mailer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	l, ok := localization[cfg.Lang]
	if !ok {
		return nil, fmt.Errorf("no locale loaded for mail language '%s'", cfg.Lang)
	}

	tm, err := templatemanager.NewTemplateManager(templates, templatemanager.TemplateManagerTemplates{
		Name:  "contact",
		Files: []string{"layouts/general-mail.html", "messages/contact.html"},
	})
	if err != nil {
		return nil, fmt.Errorf("fail to initialize template manager for message templating: %w", err)
	}

	m := &Mailer{
		tm:          tm,
		mailAddress: cfg.MailAddress,
		publicName:  cfg.PublicName,
		recipient:   cfg.Recipient,
		l:           l,
		logger:      logger,
	}

	if !cfg.Enabled {
		logger.Warn("mail delivery is disabled, contact messages will only be logged")
		return m, nil
	}

	m.mailClient, err = mail.NewClient(cfg.MailHost,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover), mail.WithTLSPortPolicy(mail.TLSMandatory),
		mail.WithUsername(cfg.Username), mail.WithPassword(cfg.Password),
	)
	if err != nil {
		return nil, fmt.Errorf("fail to initialize mail client: %w", err)
	}
	return m, nil
}

func (m *Mailer) Send(ctx context.Context, msg *contact.Message) error {
	message, err := m.compose(msg)
	if err != nil {
		return err
	}

	if m.mailClient == nil {
		m.logger.Info("contact message not delivered, mail is disabled",
			slog.String("id", msg.ID),
			slog.String("from", msg.Email),
			slog.String("subject", m.subject(msg)),
		)
		return nil
	}

	if err := m.mailClient.DialAndSendWithContext(ctx, message); err != nil {
		return fmt.Errorf("failed to send contact message: %w", err)
	}
	slog.Debug("contact message successfully delivered", slog.String("id", msg.ID), slog.String("address", m.recipient))
	return nil
}

func (m *Mailer) subject(msg *contact.Message) string {
	if msg.Subject != "" {
		return msg.Subject
	}
	return strings.Replace(m.l.Mail.Contact.Subject, "{}", msg.Name, 1)
}

func (m *Mailer) compose(msg *contact.Message) (*mail.Msg, error) {
	message := mail.NewMsg()

	if err := message.EnvelopeFrom(m.mailAddress); err != nil {
		return nil, fmt.Errorf("failed to set ENVELOPE FROM address: %w", err)
	}
	if err := message.FromFormat(m.publicName, m.mailAddress); err != nil {
		return nil, fmt.Errorf("failed to set formatted FROM address: %w", err)
	}
	if err := message.To(m.recipient); err != nil {
		return nil, fmt.Errorf("failed to set TO address: %w", err)
	}
	if err := message.ReplyTo(msg.Email); err != nil {
		return nil, fmt.Errorf("failed to set REPLY-TO address: %w", err)
	}

	message.SetMessageID()
	message.SetDate()
	message.Subject(m.subject(msg))

	htmlBody, err := m.tm.Render("contact", fiber.Map{
		"L":   m.l.Mail.Contact,
		"Msg": msg,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render message body: %w", err)
	}

	message.SetBodyString(mail.TypeTextPlain, m.plainText(msg))
	message.AddAlternativeString(mail.TypeTextHTML, string(htmlBody))
	return message, nil
}

func (m *Mailer) plainText(msg *contact.Message) string {
	l := m.l.Mail.Contact
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", l.Header)
	fmt.Fprintf(&b, "%s: %s\n", l.Name, msg.Name)
	fmt.Fprintf(&b, "%s: %s\n", l.Email, msg.Email)
	if msg.Subject != "" {
		fmt.Fprintf(&b, "%s: %s\n", l.Topic, msg.Subject)
	}
	fmt.Fprintf(&b, "%s:\n%s\n\n---\n", l.Message, msg.Body)
	fmt.Fprintf(&b, "%s: %s\n", l.SentFrom, msg.ClientAddress)
	return b.String()
}
