package services

import (
	"context"

	"github.com/dmitrijs2005/leasekeeper/internal/logging"
)

// Mailer delivers one-time codes to account owners.
type Mailer interface {
	SendOTP(ctx context.Context, email, code string) error
}

// LogMailer writes codes to the log. It is the only delivery channel of the
// development API.
type LogMailer struct {
	Logger logging.Logger
}

func (m LogMailer) SendOTP(ctx context.Context, email, code string) error {
	m.Logger.Info(ctx, "one-time code issued", "email", email, "otp", code)
	return nil
}
