package usecase

import (
	"context"
	"fmt"

	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/model"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/ports/adapter"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Notifier turns a terminal job into the customer email and, for bad
// outcomes, an operator alert. Delivery failures are logged and swallowed; a
// lost email never reopens a terminal job.
type Notifier struct {
	mailer  adapter.Mailer
	alerter adapter.Alerter // optional
	log     *zerolog.Logger
}

func NewNotifier(mailer adapter.Mailer, alerter adapter.Alerter, logger *zerolog.Logger) *Notifier {
	compLog := logger.With().Str("component", "Notifier").Logger()
	return &Notifier{mailer: mailer, alerter: alerter, log: &compLog}
}

func (n *Notifier) Success(ctx context.Context, rec model.JobRecord) {
	html := fmt.Sprintf(`<p>Ciao! 👋</p>
<p>Il tuo <b>Video Parlante AI</b> è pronto.</p>
<p><a href="%s" target="_blank">Scarica il video qui</a></p>
<p>Grazie da Eccomi OnLine!</p>`, rec.VideoURL)
	n.send(ctx, "done", rec, fmt.Sprintf("Video AI pronto — Ordine %s", rec.OrderName), html)
}

func (n *Notifier) Failure(ctx context.Context, rec model.JobRecord) {
	html := `<p>Si è verificato un errore durante la generazione. Ti contatteremo a breve.</p>`
	n.send(ctx, "failed", rec, fmt.Sprintf("Problema con il tuo Video AI — Ordine %s", rec.OrderName), html)
	n.alert(ctx, fmt.Sprintf("⚠️ job %s (%s) failed — order %s", rec.ID, rec.Provider, rec.OrderName))
}

func (n *Notifier) StillWorking(ctx context.Context, rec model.JobRecord) {
	html := `<p>La generazione richiede più tempo del previsto. Ti avviseremo non appena sarà pronto.</p>`
	n.send(ctx, "timeout", rec, fmt.Sprintf("Stiamo completando il tuo Video AI — Ordine %s", rec.OrderName), html)
	n.alert(ctx, fmt.Sprintf("⏱ job %s (%s) timed out — order %s", rec.ID, rec.Provider, rec.OrderName))
}

// Resend repeats the success email for an already-done job. Unlike the
// lifecycle notifications it propagates the send error so the admin caller
// sees the failure.
func (n *Notifier) Resend(ctx context.Context, rec model.JobRecord) error {
	html := fmt.Sprintf(`<p>Ciao! 👋</p>
<p>Il tuo <b>Video Parlante AI</b> è pronto.</p>
<p><a href="%s" target="_blank">Scarica il video qui</a></p>
<p>Grazie da Eccomi OnLine!</p>`, rec.VideoURL)
	err := n.mailer.Send(ctx, rec.ToEmail, fmt.Sprintf("Video AI pronto — Ordine %s", rec.OrderName), html)
	metrics.IncEmail("resend", err == nil)
	if err != nil {
		n.log.Error().Err(err).Str("job_id", rec.ID).Msg("resend failed")
	}
	return err
}

func (n *Notifier) send(ctx context.Context, kind string, rec model.JobRecord, subject, html string) {
	if rec.ToEmail == "" {
		n.log.Warn().Str("job_id", rec.ID).Msg("no recipient email; skipping notification")
		return
	}
	err := n.mailer.Send(ctx, rec.ToEmail, subject, html)
	metrics.IncEmail(kind, err == nil)
	if err != nil {
		n.log.Error().Err(err).Str("job_id", rec.ID).Str("kind", kind).Msg("notification email failed")
		return
	}
	n.log.Info().Str("job_id", rec.ID).Str("kind", kind).Msg("notification email sent")
}

func (n *Notifier) alert(ctx context.Context, text string) {
	if n.alerter == nil {
		return
	}
	if err := n.alerter.Alert(ctx, text); err != nil {
		n.log.Error().Err(err).Msg("operator alert failed")
	}
}
