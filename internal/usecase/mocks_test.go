package usecase_test

import (
	"context"
	"sync"

	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/model"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// mockProvider scripts the status sequence a poller will observe.
type mockProvider struct {
	mu         sync.Mutex
	kind       model.ProviderKind
	submitID   string
	submitErr  error
	statuses   []adapter.ProviderStatus // consumed one per Status call; last repeats
	statusErrs []error                  // aligned with statuses; nil entries mean success
	submits    int
	polls      int
}

func newMockProvider(kind model.ProviderKind, submitID string) *mockProvider {
	return &mockProvider{kind: kind, submitID: submitID}
}

func (m *mockProvider) Kind() model.ProviderKind { return m.kind }

func (m *mockProvider) Submit(_ context.Context, _ adapter.RenderRequest) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submits++
	if m.submitErr != nil {
		return "", "", m.submitErr
	}
	return m.submitID, `{"id":"` + m.submitID + `"}`, nil
}

func (m *mockProvider) Status(_ context.Context, _ string) (adapter.ProviderStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.polls
	m.polls++
	if i >= len(m.statuses) {
		i = len(m.statuses) - 1
	}
	if i < 0 {
		return adapter.ProviderStatus{Status: model.JobStatusProcessing}, nil
	}
	if i < len(m.statusErrs) && m.statusErrs[i] != nil {
		return adapter.ProviderStatus{}, m.statusErrs[i]
	}
	return m.statuses[i], nil
}

func (m *mockProvider) pollCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.polls
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

// mockMailer records every send; SendErr simulates delivery failure.
type mockMailer struct {
	mu      sync.Mutex
	Sent    []sentMail
	SendErr error
}

func (m *mockMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.Sent = append(m.Sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *mockMailer) sent() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentMail, len(m.Sent))
	copy(out, m.Sent)
	return out
}

type mockAlerter struct {
	mu     sync.Mutex
	Alerts []string
}

func (m *mockAlerter) Alert(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Alerts = append(m.Alerts, text)
	return nil
}

func (m *mockAlerter) alerts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Alerts))
	copy(out, m.Alerts)
	return out
}
