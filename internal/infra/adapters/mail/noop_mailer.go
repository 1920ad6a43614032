package mail

import (
	"context"

	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

var _ adapter.Mailer = (*NoopMailer)(nil)

// NoopMailer logs instead of sending. Used when no Resend key is configured.
type NoopMailer struct {
	log *zerolog.Logger
}

func NewNoopMailer(logger *zerolog.Logger) *NoopMailer {
	compLog := logger.With().Str("component", "NoopMailer").Logger()
	return &NoopMailer{log: &compLog}
}

func (m *NoopMailer) Send(_ context.Context, to, subject, _ string) error {
	m.log.Info().Str("to", to).Str("subject", subject).Msg("email suppressed (no mailer configured)")
	return nil
}
