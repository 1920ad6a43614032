package adapter

import "context"

// Mailer delivers the human-facing outcome. Failures are logged by callers
// and never reopen a terminal job.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Alerter raises an operational alert (failed/timed-out jobs) to the team.
// Distinct from Mailer: alerts go to operators, mail goes to customers.
type Alerter interface {
	Alert(ctx context.Context, text string) error
}
