package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/model"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/ports/adapter"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/usecase"

	"github.com/oklog/ulid/v2"
)

// jobCreateRequest mirrors the manual submission form.
type jobCreateRequest struct {
	Provider  string `json:"provider"` // "photo" (default) or "avatar"
	ImageURL  string `json:"image_url"`
	AvatarID  string `json:"avatar_id"`
	Script    string `json:"script"`
	Voice     string `json:"voice"` // "ms:<id>" | "eleven:<id>" | "heygen:<id>"
	AudioURL  string `json:"audio_url"`
	ToEmail   string `json:"to_email"`
	OrderName string `json:"order_name"`
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req jobCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	orderName := req.OrderName
	if orderName == "" {
		// Manual submissions get a generated order reference so emails and
		// the dashboard always have something to show.
		orderName = "manual-" + ulid.Make().String()
	}

	sub := usecase.SubmitRequest{
		ToEmail:   req.ToEmail,
		OrderName: orderName,
	}
	switch strings.ToLower(req.Provider) {
	case "", "photo":
		sub.Provider = model.ProviderPhoto
		sub.Photo = &model.PhotoJob{
			ImageURL: req.ImageURL,
			Script:   req.Script,
			Voice:    parseVoiceSpec(req.Voice),
			AudioURL: req.AudioURL,
		}
	case "avatar":
		sub.Provider = model.ProviderAvatar
		sub.Avatar = &model.AvatarJob{
			AvatarID: req.AvatarID,
			Script:   req.Script,
			VoiceID:  parseVoiceSpec(req.Voice).ID,
			AudioURL: req.AudioURL,
		}
	default:
		http.Error(w, "unknown provider: "+req.Provider, http.StatusBadRequest)
		return
	}

	rec, err := s.jobUC.Submit(r.Context(), sub)
	if err != nil {
		writeSubmitError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true, "job": rec})
}

func writeSubmitError(w http.ResponseWriter, err error) {
	var perr *adapter.ProviderError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &perr) && perr.Kind == adapter.ProviderErrConfig:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	case errors.As(err, &perr) && perr.Kind == adapter.ProviderErrRejected:
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		http.Error(w, "submission failed", http.StatusBadGateway)
	}
}

// parseVoiceSpec turns the string voice specifiers accepted on the wire into
// the tagged form. This is the only place the prefixes are interpreted.
func parseVoiceSpec(raw string) model.VoiceSpec {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.VoiceSpec{}
	}
	switch {
	case strings.HasPrefix(raw, "ms:"):
		return model.VoiceSpec{Vendor: model.VoiceMicrosoft, ID: strings.TrimPrefix(raw, "ms:")}
	case strings.HasPrefix(raw, "eleven:"):
		return model.VoiceSpec{Vendor: model.VoiceElevenLabs, ID: strings.TrimPrefix(raw, "eleven:")}
	case strings.HasPrefix(raw, "heygen:"):
		return model.VoiceSpec{Vendor: model.VoiceHeygen, ID: strings.TrimPrefix(raw, "heygen:")}
	default:
		// Bare value: treat as a Microsoft voice id.
		return model.VoiceSpec{Vendor: model.VoiceMicrosoft, ID: raw}
	}
}
