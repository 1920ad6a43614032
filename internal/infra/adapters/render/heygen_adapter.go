package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/model"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.RenderProvider = (*HeygenAdapter)(nil)

// heygenStatusMap normalizes the HeyGen video_status vocabulary.
var heygenStatusMap = map[string]model.JobStatus{
	"pending":    model.JobStatusSubmitted,
	"waiting":    model.JobStatusSubmitted,
	"processing": model.JobStatusProcessing,
	"completed":  model.JobStatusDone,
	"succeeded":  model.JobStatusDone,
	"failed":     model.JobStatusFailed,
	"error":      model.JobStatusFailed,
}

// HeygenAdapter implements the avatar-to-video path against the HeyGen API.
type HeygenAdapter struct {
	apiKey        string
	base          string // e.g., https://api.heygen.com
	defaultAvatar string
	client        *http.Client
}

func NewHeygenAdapter(apiKey, baseURL, defaultAvatar string) *HeygenAdapter {
	if baseURL == "" {
		baseURL = "https://api.heygen.com"
	}
	return &HeygenAdapter{
		apiKey:        apiKey,
		base:          baseURL,
		defaultAvatar: defaultAvatar,
		client:        &http.Client{Timeout: 90 * time.Second},
	}
}

func (h *HeygenAdapter) Kind() model.ProviderKind { return model.ProviderAvatar }

type heygenVoice struct {
	Type      string `json:"type"`
	InputText string `json:"input_text,omitempty"`
	VoiceID   string `json:"voice_id,omitempty"`
	AudioURL  string `json:"audio_url,omitempty"`
}

type heygenCharacter struct {
	Type     string `json:"type"`
	AvatarID string `json:"avatar_id"`
}

type heygenVideoInput struct {
	Character heygenCharacter `json:"character"`
	Voice     heygenVoice     `json:"voice"`
}

type heygenGeneratePayload struct {
	VideoInputs []heygenVideoInput `json:"video_inputs"`
	Dimension   struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"dimension"`
}

func (h *HeygenAdapter) Submit(ctx context.Context, req adapter.RenderRequest) (string, string, error) {
	if h.apiKey == "" {
		return "", "", &adapter.ProviderError{
			Provider: h.Kind(), Kind: adapter.ProviderErrConfig, Message: "HEYGEN_API_KEY missing",
			Err: domain.ErrProviderConfig,
		}
	}
	job := req.Avatar
	if job == nil {
		return "", "", &adapter.ProviderError{
			Provider: h.Kind(), Kind: adapter.ProviderErrRejected, Message: "avatar input missing",
		}
	}
	avatarID := job.AvatarID
	if avatarID == "" {
		avatarID = h.defaultAvatar
	}
	if avatarID == "" {
		return "", "", &adapter.ProviderError{
			Provider: h.Kind(), Kind: adapter.ProviderErrConfig, Message: "avatar id missing and no default configured",
			Err: domain.ErrProviderConfig,
		}
	}

	voice := heygenVoice{Type: "text", InputText: job.Script, VoiceID: job.VoiceID}
	if job.AudioURL != "" {
		voice = heygenVoice{Type: "audio", AudioURL: job.AudioURL}
	}
	payload := heygenGeneratePayload{
		VideoInputs: []heygenVideoInput{{
			Character: heygenCharacter{Type: "avatar", AvatarID: avatarID},
			Voice:     voice,
		}},
	}
	payload.Dimension.Width = 1280
	payload.Dimension.Height = 720

	body, raw, err := h.do(ctx, http.MethodPost, "/v2/video/generate", payload)
	if err != nil {
		return "", "", err
	}
	var resp struct {
		Data struct {
			VideoID string `json:"video_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.Data.VideoID == "" {
		return "", "", &adapter.ProviderError{
			Provider: h.Kind(), Kind: adapter.ProviderErrRejected,
			Message: "generate returned no video id", Err: err,
		}
	}
	return resp.Data.VideoID, raw, nil
}

func (h *HeygenAdapter) Status(ctx context.Context, jobID string) (adapter.ProviderStatus, error) {
	if h.apiKey == "" {
		return adapter.ProviderStatus{}, &adapter.ProviderError{
			Provider: h.Kind(), Kind: adapter.ProviderErrConfig, Message: "HEYGEN_API_KEY missing",
			Err: domain.ErrProviderConfig,
		}
	}
	path := "/v1/video_status.get?video_id=" + url.QueryEscape(jobID)
	body, raw, err := h.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return adapter.ProviderStatus{}, err
	}
	var resp struct {
		Data struct {
			Status   string `json:"status"`
			VideoURL string `json:"video_url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return adapter.ProviderStatus{}, &adapter.ProviderError{
			Provider: h.Kind(), Kind: adapter.ProviderErrTransport,
			Message: "malformed status response", Err: err,
		}
	}
	status, ok := heygenStatusMap[resp.Data.Status]
	if !ok {
		status = model.JobStatusProcessing
	}
	return adapter.ProviderStatus{Status: status, VideoURL: resp.Data.VideoURL, Raw: raw}, nil
}

func (h *HeygenAdapter) do(ctx context.Context, method, path string, payload any) ([]byte, string, error) {
	var reqBody io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		reqBody = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, h.base+path, reqBody)
	if err != nil {
		return nil, "", &adapter.ProviderError{Provider: h.Kind(), Kind: adapter.ProviderErrTransport, Message: "build request", Err: err}
	}
	req.Header.Set("X-Api-Key", h.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, "", &adapter.ProviderError{Provider: h.Kind(), Kind: adapter.ProviderErrTransport, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	raw := string(body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, raw, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, raw, &adapter.ProviderError{
			Provider: h.Kind(), Kind: adapter.ProviderErrConfig,
			Message: fmt.Sprintf("auth rejected (http %d)", resp.StatusCode),
		}
	case resp.StatusCode >= 500:
		return nil, raw, &adapter.ProviderError{
			Provider: h.Kind(), Kind: adapter.ProviderErrTransport,
			Message: fmt.Sprintf("heygen http %d", resp.StatusCode),
		}
	default:
		return nil, raw, &adapter.ProviderError{
			Provider: h.Kind(), Kind: adapter.ProviderErrRejected,
			Message: fmt.Sprintf("heygen http %d: %s", resp.StatusCode, raw),
		}
	}
}
