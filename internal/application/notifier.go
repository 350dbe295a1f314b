package application

import "context"

// Notification kinds understood by the email worker.
const (
	NotifyVerifyEmail    = "verify_email"
	NotifyForgotPassword = "forgot_password"
)

// Notifier delivers out-of-band messages. Implementations must not retry
// synchronously; delivery guarantees belong to the transport behind them.
type Notifier interface {
	Send(ctx context.Context, destination, kind string, payload map[string]any) error
}
