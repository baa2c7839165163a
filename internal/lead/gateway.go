package lead

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/Masterminds/sprig/v3"

	"github.com/fyrsmithlabs/estimator/internal/config"
	"github.com/fyrsmithlabs/estimator/internal/sendgrid"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var notificationTmpl = template.Must(
	template.New("notification.html.tmpl").
		Funcs(sprig.FuncMap()).
		ParseFS(templateFS, "templates/notification.html.tmpl"),
)

const defaultConfirmationBody = "<p>Thank you for using our estimate calculator. Your personalized results have been calculated based on your selections.</p>" +
	"<p>We'll be in touch soon with your detailed estimate.</p>"

// MailSender delivers a single email.
type MailSender interface {
	Send(ctx context.Context, msg sendgrid.Message) error
}

// EmailGateway implements ConfirmationSender and NotificationSender on top
// of a MailSender.
type EmailGateway struct {
	mail        MailSender
	fromEmail   string
	fromName    string
	notifyEmail string
	notifyName  string
	notifyFrom  string
	now         func() time.Time
}

// NewEmailGateway creates a gateway from the sendgrid and lead config sections.
func NewEmailGateway(mail MailSender, sg config.SendGridConfig, lc config.LeadConfig) *EmailGateway {
	return &EmailGateway{
		mail:        mail,
		fromEmail:   sg.FromEmail,
		fromName:    sg.FromName,
		notifyEmail: lc.NotifyEmail,
		notifyName:  lc.NotifyName,
		notifyFrom:  lc.NotificationFromName,
		now:         time.Now,
	}
}

// SendConfirmation greets the submitter by name ahead of the template body,
// or a default body when the template is empty.
func (g *EmailGateway) SendConfirmation(ctx context.Context, toEmail, toName, htmlBody, subject string) error {
	body := htmlBody
	if strings.TrimSpace(body) == "" {
		body = defaultConfirmationBody
	}
	return g.mail.Send(ctx, sendgrid.Message{
		ToEmail:   toEmail,
		ToName:    toName,
		FromEmail: g.fromEmail,
		FromName:  g.fromName,
		Subject:   subject,
		HTML:      fmt.Sprintf("<p>Hello %s,</p>%s", template.HTMLEscapeString(toName), body),
	})
}

type notificationData struct {
	Contact     Contact
	SubmittedAt time.Time
	Breakdown   template.HTML
}

// SendNotification emails the lead details and estimate breakdown to the
// operations address.
func (g *EmailGateway) SendNotification(ctx context.Context, c Contact, breakdownHTML string) error {
	var buf bytes.Buffer
	err := notificationTmpl.Execute(&buf, notificationData{
		Contact:     c,
		SubmittedAt: g.now(),
		// Rendered by quote.BreakdownHTML, which escapes its inputs.
		Breakdown: template.HTML(breakdownHTML), //nolint:gosec
	})
	if err != nil {
		return fmt.Errorf("rendering notification: %w", err)
	}
	return g.mail.Send(ctx, sendgrid.Message{
		ToEmail:   g.notifyEmail,
		ToName:    g.notifyName,
		FromEmail: g.fromEmail,
		FromName:  g.notifyFrom,
		Subject:   NotificationSubject(c),
		HTML:      buf.String(),
	})
}

// NotificationSubject is the subject of the internal lead notification.
func NotificationSubject(c Contact) string {
	return fmt.Sprintf("🏗️ New Estimate Lead: %s (%s)", c.Name, c.Email)
}
