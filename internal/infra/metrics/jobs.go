package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(jobsSubmittedTotal, jobsTerminalTotal, jobPollsTotal, jobWaitSeconds)
}

var (
	jobsSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_jobs_submitted_total",
			Help: "Render jobs accepted for processing, labeled by provider.",
		},
		[]string{"provider"},
	)

	jobsTerminalTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_jobs_terminal_total",
			Help: "Render jobs that reached a terminal state, labeled by provider and outcome.",
		},
		[]string{"provider", "status"}, // 'done', 'failed', 'timeout'
	)

	jobPollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_job_polls_total",
			Help: "Provider status calls made by pollers, labeled by provider and result.",
		},
		[]string{"provider", "result"}, // 'ok', 'error'
	)

	jobWaitSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_job_wait_seconds",
			Help:    "Time from submission to terminal state.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 900, 1200},
		},
		[]string{"provider"},
	)
)

func IncJobSubmitted(provider string) {
	jobsSubmittedTotal.WithLabelValues(norm(provider)).Inc()
}

func IncJobTerminal(provider, status string) {
	jobsTerminalTotal.WithLabelValues(norm(provider), norm(status)).Inc()
}

func IncJobPoll(provider string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	jobPollsTotal.WithLabelValues(norm(provider), result).Inc()
}

func ObserveJobWait(provider string, d time.Duration) {
	jobWaitSeconds.WithLabelValues(norm(provider)).Observe(d.Seconds())
}
