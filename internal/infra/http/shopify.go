package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/model"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/infra/metrics"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/usecase"
)

const shopifyHMACHeader = "X-Shopify-Hmac-Sha256"

type shopifyOrder struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	OrderNumber int64  `json:"order_number"`
	Customer    struct {
		Email string `json:"email"`
	} `json:"customer"`
	LineItems []struct {
		ID         int64 `json:"id"`
		Properties []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"properties"`
	} `json:"line_items"`
}

func (s *Server) handleShopifyHook(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "cannot read body", http.StatusBadRequest)
		return
	}
	if !s.verifyShopifyHMAC(r, raw) {
		metrics.IncWebhook("rejected_hmac")
		http.Error(w, "Invalid HMAC", http.StatusUnauthorized)
		return
	}

	var order shopifyOrder
	if err := json.Unmarshal(raw, &order); err != nil {
		metrics.IncWebhook("bad_payload")
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	metrics.IncWebhook("accepted")

	toEmail := order.Customer.Email
	if toEmail == "" {
		toEmail = order.Email
	}
	orderName := order.Name
	if orderName == "" && order.OrderNumber != 0 {
		orderName = fmt.Sprintf("%d", order.OrderNumber)
	}

	type createdJob struct {
		LineItemID int64           `json:"line_item_id"`
		Job        model.JobRecord `json:"job"`
	}
	created := make([]createdJob, 0, len(order.LineItems))

	for _, li := range order.LineItems {
		props := make(map[string]string, len(li.Properties))
		for _, p := range li.Properties {
			if p.Name != "" {
				props[p.Name] = p.Value
			}
		}

		imageURL := firstOf(props, "Foto", "Immagine", "Image")
		script := firstOf(props, "Testo", "Script")
		audioURL := props["Audio"]
		// A recorded audio file wins over typed text when an item carries both.
		if audioURL != "" {
			script = ""
		}
		voiceSel := props["Voce"]
		if voiceSel == "" {
			voiceSel = "Uomo"
		}

		// Incomplete line items are skipped, not failed: one bad personalized
		// item must not block the rest of the order.
		if imageURL == "" || (script == "" && audioURL == "") || toEmail == "" {
			s.log.Warn().Int64("line_item", li.ID).Str("order", orderName).Msg("skipping incomplete line item")
			continue
		}

		rec, err := s.jobUC.Submit(r.Context(), usecase.SubmitRequest{
			Provider: model.ProviderPhoto,
			Photo: &model.PhotoJob{
				ImageURL: imageURL,
				Script:   script,
				Voice:    voiceFromSelection(voiceSel),
				AudioURL: audioURL,
			},
			ToEmail:   toEmail,
			OrderName: orderName,
		})
		if err != nil {
			s.log.Error().Err(err).Int64("line_item", li.ID).Str("order", orderName).Msg("webhook job submission failed")
			continue
		}
		created = append(created, createdJob{LineItemID: li.ID, Job: rec})
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "jobs": created})
}

// verifyShopifyHMAC checks the webhook signature when verification is
// enabled. Shopify signs the raw body with the shared secret, base64 encoded.
func (s *Server) verifyShopifyHMAC(r *http.Request, raw []byte) bool {
	if !s.cfg.Shopify.VerifyHMAC || s.cfg.Shopify.WebhookSecret == "" {
		return true
	}
	header := r.Header.Get(shopifyHMACHeader)
	if header == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(s.cfg.Shopify.WebhookSecret))
	mac.Write(raw)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}

// voiceFromSelection maps the storefront "Voce" option to a concrete voice.
// "Uomo" (default) and "Donna" select the stock Italian voices; an explicit
// "eleven:<id>" value passes through.
func voiceFromSelection(sel string) model.VoiceSpec {
	if strings.HasPrefix(sel, "eleven:") {
		return parseVoiceSpec(sel)
	}
	if strings.HasPrefix(strings.ToLower(sel), "don") {
		return model.VoiceSpec{Vendor: model.VoiceMicrosoft, ID: "it-IT-IsabellaNeural"}
	}
	return model.VoiceSpec{Vendor: model.VoiceMicrosoft, ID: "it-IT-GiuseppeNeural"}
}

func firstOf(props map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := props[k]; v != "" {
			return v
		}
	}
	return ""
}
