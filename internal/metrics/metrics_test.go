package metrics

import (
	"sort"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorNames(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestsInFlight,
		HTTPRequestDurationSeconds,
		AnalysesTotal,
		FallbackTotal,
		InferenceDurationSeconds,
		CandidatesListedTotal,
	)

	// vectors only show up once a label set exists
	HTTPRequestsTotal.WithLabelValues("GET", "2xx")
	HTTPRequestDurationSeconds.WithLabelValues("GET")
	AnalysesTotal.WithLabelValues("ok")
	InferenceDurationSeconds.WithLabelValues("describe")
	CandidatesListedTotal.WithLabelValues("ok")

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	sort.Strings(names)

	assert.Equal(t, []string{
		"signs_analyses_total",
		"signs_candidates_listed_total",
		"signs_description_fallback_total",
		"signs_http_request_duration_seconds",
		"signs_http_requests_in_flight",
		"signs_http_requests_total",
		"signs_inference_duration_seconds",
	}, names)
}

func TestRegister_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}
