package mailer

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/auth2-service/pkg/helpers"
	mailtpl "github.com/oksasatya/auth2-service/pkg/mailer/templates"
)

// Sender delivers one rendered email.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Worker renders queued EmailJobs and delivers them, retrying transient send failures.
type Worker struct {
	Sender     Sender
	Logger     logrus.FieldLogger
	MaxRetries uint64
	Backoff    time.Duration
	// IsPermanent classifies send errors that must not be retried. Defaults to Permanent.
	IsPermanent func(error) bool
}

// Handle processes one message body. requeue is true only when delivery failed
// for a reason that may succeed later.
func (w *Worker) Handle(ctx context.Context, body []byte) (requeue bool, err error) {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return false, oops.In("mailer").Code("EMAIL_BAD_MESSAGE").Wrapf(err, "decode email job")
	}
	if strings.TrimSpace(job.To) == "" {
		return false, oops.In("mailer").Code("EMAIL_BAD_MESSAGE").Errorf("email job without recipient")
	}

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		if !mailtpl.Known(job.Template) {
			return false, oops.In("mailer").Code("EMAIL_UNKNOWN_TEMPLATE").With("template", job.Template).Errorf("unknown template")
		}
		subject, text, html, err = mailtpl.Render(job.Template, job.Data)
		if err != nil {
			return false, oops.In("mailer").Code("EMAIL_RENDER_FAILED").With("template", job.Template).Wrap(err)
		}
	}

	permanent := w.IsPermanent
	if permanent == nil {
		permanent = Permanent
	}
	backoff := w.Backoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	attempt := 0
	b := retry.WithMaxRetries(w.MaxRetries, retry.NewExponential(backoff))
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := w.Sender.Send(ctx, job.To, subject, text, html); err != nil {
			if permanent(err) {
				return err
			}
			w.Logger.WithError(err).WithFields(logrus.Fields{"template": job.Template, "attempt": attempt}).Warn("email send failed, retrying")
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		wrapped := oops.In("mailer").Code("EMAIL_SEND_FAILED").With("template", job.Template).With("attempts", attempt).Wrap(err)
		return !permanent(err), wrapped
	}
	return false, nil
}

// Consume acks, drops or requeues deliveries until the channel closes or ctx ends.
func (w *Worker) Consume(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			requeue, err := w.Handle(ctx, d.Body)
			if err != nil {
				helpers.LogError(w.Logger, "email job failed", err, logrus.Fields{"requeue": requeue})
				_ = d.Nack(false, requeue)
				continue
			}
			_ = d.Ack(false)
		}
	}
}
