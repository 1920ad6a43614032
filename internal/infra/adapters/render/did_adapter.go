package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/model"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.RenderProvider = (*DIDAdapter)(nil)

// didStatusMap normalizes the D-ID talks vocabulary onto the closed status
// set. Anything missing from the table is treated as still in progress.
var didStatusMap = map[string]model.JobStatus{
	"created":  model.JobStatusSubmitted,
	"started":  model.JobStatusProcessing,
	"done":     model.JobStatusDone,
	"error":    model.JobStatusFailed,
	"failed":   model.JobStatusFailed,
	"rejected": model.JobStatusFailed,
}

// DIDAdapter implements the photo-to-video path against the D-ID talks API.
type DIDAdapter struct {
	apiKey string
	base   string // e.g., https://api.d-id.com
	client *http.Client
}

func NewDIDAdapter(apiKey, baseURL string) *DIDAdapter {
	if baseURL == "" {
		baseURL = "https://api.d-id.com"
	}
	return &DIDAdapter{
		apiKey: apiKey,
		base:   baseURL,
		client: &http.Client{Timeout: 90 * time.Second},
	}
}

func (d *DIDAdapter) Kind() model.ProviderKind { return model.ProviderPhoto }

type didScriptProvider struct {
	Type    string `json:"type"`
	VoiceID string `json:"voice_id"`
}

type didScript struct {
	Type     string            `json:"type"`
	Input    string            `json:"input"`
	Provider didScriptProvider `json:"provider"`
}

type didTalkPayload struct {
	SourceURL string     `json:"source_url"`
	Config    struct {
		Stitch bool `json:"stitch"`
	} `json:"config"`
	AudioURL string     `json:"audio_url,omitempty"`
	Script   *didScript `json:"script,omitempty"`
}

func (d *DIDAdapter) Submit(ctx context.Context, req adapter.RenderRequest) (string, string, error) {
	if d.apiKey == "" {
		return "", "", &adapter.ProviderError{
			Provider: d.Kind(), Kind: adapter.ProviderErrConfig, Message: "D_ID_API_KEY missing",
			Err: domain.ErrProviderConfig,
		}
	}
	job := req.Photo
	if job == nil {
		return "", "", &adapter.ProviderError{
			Provider: d.Kind(), Kind: adapter.ProviderErrRejected, Message: "photo input missing",
		}
	}

	payload := didTalkPayload{SourceURL: job.ImageURL}
	payload.Config.Stitch = true
	if job.AudioURL != "" {
		payload.AudioURL = job.AudioURL
	} else {
		voice := job.Voice
		if voice.IsZero() {
			voice = model.DefaultVoice
		}
		provider := didScriptProvider{Type: "microsoft", VoiceID: voice.ID}
		if voice.Vendor == model.VoiceElevenLabs {
			provider.Type = "elevenlabs"
		}
		payload.Script = &didScript{Type: "text", Input: job.Script, Provider: provider}
	}

	body, raw, err := d.do(ctx, http.MethodPost, "/talks", payload)
	if err != nil {
		return "", "", err
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.ID == "" {
		return "", "", &adapter.ProviderError{
			Provider: d.Kind(), Kind: adapter.ProviderErrRejected,
			Message: "create talk returned no id", Err: err,
		}
	}
	return resp.ID, raw, nil
}

func (d *DIDAdapter) Status(ctx context.Context, jobID string) (adapter.ProviderStatus, error) {
	if d.apiKey == "" {
		return adapter.ProviderStatus{}, &adapter.ProviderError{
			Provider: d.Kind(), Kind: adapter.ProviderErrConfig, Message: "D_ID_API_KEY missing",
			Err: domain.ErrProviderConfig,
		}
	}
	body, raw, err := d.do(ctx, http.MethodGet, "/talks/"+jobID, nil)
	if err != nil {
		return adapter.ProviderStatus{}, err
	}
	var resp struct {
		Status    string `json:"status"`
		ResultURL string `json:"result_url"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return adapter.ProviderStatus{}, &adapter.ProviderError{
			Provider: d.Kind(), Kind: adapter.ProviderErrTransport,
			Message: "malformed status response", Err: err,
		}
	}
	status, ok := didStatusMap[resp.Status]
	if !ok {
		status = model.JobStatusProcessing
	}
	return adapter.ProviderStatus{Status: status, VideoURL: resp.ResultURL, Raw: raw}, nil
}

func (d *DIDAdapter) do(ctx context.Context, method, path string, payload any) ([]byte, string, error) {
	var reqBody io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		reqBody = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, d.base+path, reqBody)
	if err != nil {
		return nil, "", &adapter.ProviderError{Provider: d.Kind(), Kind: adapter.ProviderErrTransport, Message: "build request", Err: err}
	}
	// D-ID uses basic auth with the key as username and an empty password.
	token := base64.StdEncoding.EncodeToString([]byte(d.apiKey + ":"))
	req.Header.Set("Authorization", "Basic "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, "", &adapter.ProviderError{Provider: d.Kind(), Kind: adapter.ProviderErrTransport, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	raw := string(body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, raw, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, raw, &adapter.ProviderError{
			Provider: d.Kind(), Kind: adapter.ProviderErrConfig,
			Message: fmt.Sprintf("auth rejected (http %d)", resp.StatusCode),
		}
	case resp.StatusCode >= 500:
		return nil, raw, &adapter.ProviderError{
			Provider: d.Kind(), Kind: adapter.ProviderErrTransport,
			Message: fmt.Sprintf("d-id http %d", resp.StatusCode),
		}
	default:
		return nil, raw, &adapter.ProviderError{
			Provider: d.Kind(), Kind: adapter.ProviderErrRejected,
			Message: fmt.Sprintf("d-id http %d: %s", resp.StatusCode, raw),
		}
	}
}
