package render

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/model"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/ports/adapter"
)

var _ adapter.RenderProvider = (*NoopAdapter)(nil)

// NoopAdapter fakes a provider for dev mode: every job completes on the
// first status call with a placeholder URL.
type NoopAdapter struct {
	kind model.ProviderKind
	seq  atomic.Int64
}

func NewNoopAdapter(kind model.ProviderKind) *NoopAdapter {
	return &NoopAdapter{kind: kind}
}

func (n *NoopAdapter) Kind() model.ProviderKind { return n.kind }

func (n *NoopAdapter) Submit(_ context.Context, _ adapter.RenderRequest) (string, string, error) {
	id := fmt.Sprintf("noop-%s-%d", n.kind, n.seq.Add(1))
	return id, `{"noop":true}`, nil
}

func (n *NoopAdapter) Status(_ context.Context, jobID string) (adapter.ProviderStatus, error) {
	return adapter.ProviderStatus{
		Status:   model.JobStatusDone,
		VideoURL: "https://example.invalid/videos/" + jobID + ".mp4",
		Raw:      `{"noop":true,"status":"done"}`,
	}, nil
}
