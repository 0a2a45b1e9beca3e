package mail

import (
	"context"
	"log/slog"

	"github.com/tmarcial/passage/core"
)

// LogMailer writes verification tokens to the log instead of delivering
// them. It is the default mailer, useful for development and tests.
type LogMailer struct {
	log *slog.Logger
}

var _ core.Mailer = (*LogMailer)(nil)

func NewLogMailer(log *slog.Logger) *LogMailer {
	if log == nil {
		log = slog.Default()
	}
	return &LogMailer{log: log}
}

func (m *LogMailer) SendVerification(ctx context.Context, email, token string, repeat bool) error {
	m.log.Info("verification mail", "email", email, "token", token, "repeat", repeat)
	return nil
}
