package adapter

import (
	"context"
	"fmt"

	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/model"
)

// RenderRequest is the closed-variant submission input. Exactly one of the
// Photo/Avatar branches is populated; the orchestrator validates shape before
// the adapter is reached.
type RenderRequest struct {
	Photo  *model.PhotoJob
	Avatar *model.AvatarJob
}

// ProviderStatus is one observation of a remote job. Status is already
// normalized onto the closed model.JobStatus set; Raw keeps the unmodified
// provider response body for auditing.
type ProviderStatus struct {
	Status   model.JobStatus
	VideoURL string
	Raw      string
}

// RenderProvider is implemented once per rendering backend.
// Submit is fire-and-forget on the provider side: calling it twice creates
// two independent remote jobs.
type RenderProvider interface {
	Kind() model.ProviderKind
	Submit(ctx context.Context, req RenderRequest) (jobID string, raw string, err error)
	Status(ctx context.Context, jobID string) (ProviderStatus, error)
}

type ProviderErrorKind string

const (
	// ProviderErrConfig covers missing credentials or required identifiers.
	// Never retried; surfaced once.
	ProviderErrConfig ProviderErrorKind = "config"
	// ProviderErrTransport covers network failures and 5xx responses.
	// Retryable while polling, fatal at submit time.
	ProviderErrTransport ProviderErrorKind = "transport"
	// ProviderErrRejected covers 4xx responses the provider gave to a
	// well-formed call (bad image, unknown avatar).
	ProviderErrRejected ProviderErrorKind = "rejected"
)

type ProviderError struct {
	Provider model.ProviderKind
	Kind     ProviderErrorKind
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s provider: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s provider: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Retryable reports whether the poller may try the call again.
func (e *ProviderError) Retryable() bool { return e.Kind == ProviderErrTransport }
