package mailer

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"estate/server/internal/models"
)

// ErrDisabled is returned when no SMTP server is configured
var ErrDisabled = errors.New("email sending is not configured")

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer sends property summaries to partners over SMTP
type Mailer struct {
	from   string
	dialer dialer
	logger *logrus.Logger
}

// NewMailer creates a mailer. Without a host, or without a sender address
// (from or username), every send returns ErrDisabled.
func NewMailer(host string, port int, username, password, from string, logger *logrus.Logger) *Mailer {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if from == "" {
		from = username
	}

	m := &Mailer{from: from, logger: logger}
	switch {
	case host == "":
	case from == "":
		logger.WithField("host", host).Warn("SMTP_HOST is set but neither SMTP_FROM nor SMTP_USERNAME is, email sending is disabled")
	default:
		m.dialer = gomail.NewDialer(host, port, username, password)
	}
	return m
}

// Enabled reports whether an SMTP server is configured
func (m *Mailer) Enabled() bool {
	return m.dialer != nil
}

var propertyTemplate = template.Must(template.New("property").Parse(`
<h2>{{.Property.Name}}</h2>
<p>Dear {{.Partner.Name}},</p>
<p>Here is the latest information about a property you made an offer on.</p>
<table>
	<tr><td>Expected price</td><td>{{printf "%.2f" .Property.ExpectedPrice}}</td></tr>
	{{- if .Property.BestOffer}}
	<tr><td>Best offer</td><td>{{printf "%.2f" .Property.BestOffer}}</td></tr>
	{{- end}}
	<tr><td>State</td><td>{{.Property.State}}</td></tr>
	{{- if .Property.City}}
	<tr><td>Location</td><td>{{.Property.Postcode}} {{.Property.City}}</td></tr>
	{{- end}}
	<tr><td>Bedrooms</td><td>{{.Property.Bedrooms}}</td></tr>
	<tr><td>Total area</td><td>{{.Property.TotalArea}} m²</td></tr>
</table>
{{- if .Property.Description}}
<p>{{.Property.Description}}</p>
{{- end}}
`))

// RenderProperty renders the HTML body sent to one partner
func RenderProperty(p *models.Property, partner models.Partner) (string, error) {
	var buf bytes.Buffer
	err := propertyTemplate.Execute(&buf, struct {
		Property *models.Property
		Partner  models.Partner
	}{p, partner})
	if err != nil {
		return "", fmt.Errorf("failed to render property email: %w", err)
	}
	return buf.String(), nil
}

// SendProperty mails the property summary to every partner with an email address.
// It returns the number of messages sent.
func (m *Mailer) SendProperty(p *models.Property, partners []models.Partner) (int, error) {
	if !m.Enabled() {
		return 0, ErrDisabled
	}

	messages := make([]*gomail.Message, 0, len(partners))
	for _, partner := range partners {
		if partner.Email == "" {
			continue
		}
		body, err := RenderProperty(p, partner)
		if err != nil {
			return 0, err
		}

		msg := gomail.NewMessage()
		msg.SetHeader("From", m.from)
		msg.SetAddressHeader("To", partner.Email, partner.Name)
		msg.SetHeader("Subject", p.Name)
		msg.SetBody("text/html", body)
		messages = append(messages, msg)
	}
	if len(messages) == 0 {
		return 0, nil
	}

	if err := m.dialer.DialAndSend(messages...); err != nil {
		return 0, fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.WithFields(logrus.Fields{
		"property_id": p.ID,
		"recipients":  len(messages),
	}).Info("Property email sent")
	return len(messages), nil
}
