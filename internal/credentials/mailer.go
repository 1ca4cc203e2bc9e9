package credentials

import (
	"context"

	"github.com/dmitrijs2005/eduassist/internal/logging"
)

// Mailer delivers verification links.
type Mailer interface {
	SendVerification(ctx context.Context, email, link string) error
}

// LogMailer writes verification links to the log instead of sending mail.
type LogMailer struct {
	log logging.Logger
}

func NewLogMailer(log logging.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendVerification(ctx context.Context, email, link string) error {
	m.log.Info(ctx, "verification email", "email", email, "link", link)
	return nil
}
