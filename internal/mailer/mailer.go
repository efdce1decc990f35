// Package mailer is the outbound email seam. The portal only ever needs
// {to, subject, body}; real delivery is provided by whichever implementation
// is wired at startup.
package mailer

import (
	"go.uber.org/zap"
)

// Mailer delivers a single message and reports success or failure.
type Mailer interface {
	Send(to, subject, body string) error
}

// LogMailer writes outbound mail to the log instead of delivering it. Used in
// development and wherever delivery is stubbed out.
type LogMailer struct {
	log *zap.Logger
}

// NewLogMailer constructs a LogMailer on the given logger.
func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log}
}

// Send logs the message and always succeeds.
func (m *LogMailer) Send(to, subject, body string) error {
	m.log.Info("Outbound email",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}
