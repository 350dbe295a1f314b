package mailer

import (
	"context"

	"github.com/samber/oops"
	"github.com/sirupsen/logrus"
)

// Publisher puts a JSON document on the email queue.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// Branding is merged into every job so templates can render a footer.
type Branding struct {
	CompanyName string
	SupportURL  string
}

// QueueNotifier hands notifications to the email worker through RabbitMQ.
type QueueNotifier struct {
	pub      Publisher
	branding Branding
}

func NewQueueNotifier(pub Publisher, branding Branding) *QueueNotifier {
	return &QueueNotifier{pub: pub, branding: branding}
}

func (n *QueueNotifier) Send(ctx context.Context, to, kind string, payload map[string]any) error {
	data := make(map[string]any, len(payload)+2)
	data["company_name"] = n.branding.CompanyName
	data["support_url"] = n.branding.SupportURL
	for k, v := range payload {
		data[k] = v
	}
	job := EmailJob{To: to, Template: kind, Data: data}
	if err := n.pub.PublishJSON(ctx, job); err != nil {
		return oops.In("mailer").Code("EMAIL_ENQUEUE_FAILED").With("template", kind).Wrapf(err, "enqueue email")
	}
	return nil
}

// LogNotifier records notifications instead of sending them (MAIL_SEND_ENABLED=false).
// Links are not logged because they carry live tokens.
type LogNotifier struct {
	Logger logrus.FieldLogger
}

func (n LogNotifier) Send(_ context.Context, to, kind string, payload map[string]any) error {
	n.Logger.WithFields(logrus.Fields{
		"to":         to,
		"template":   kind,
		"expires_at": payload["expires_at"],
	}).Info("email sending disabled; notification dropped")
	return nil
}
