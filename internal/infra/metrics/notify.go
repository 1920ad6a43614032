package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(emailsSentTotal, webhooksTotal) }

var (
	emailsSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_emails_total",
			Help: "Outcome emails attempted, labeled by kind and success.",
		},
		[]string{"kind", "success"}, // kind: 'done', 'failed', 'timeout', 'resend'
	)

	webhooksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingress_webhooks_total",
			Help: "Shopify webhook deliveries, labeled by result.",
		},
		[]string{"result"}, // 'accepted', 'rejected_hmac', 'bad_payload'
	)
)

func IncEmail(kind string, success bool) {
	s := "true"
	if !success {
		s = "false"
	}
	emailsSentTotal.WithLabelValues(norm(kind), s).Inc()
}

func IncWebhook(result string) {
	webhooksTotal.WithLabelValues(norm(result)).Inc()
}
