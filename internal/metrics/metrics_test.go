package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesPipelineCollectors(t *testing.T) {
	m := New()
	m.InputsAccepted.WithLabelValues("file_picker").Inc()
	m.Submissions.WithLabelValues("success").Add(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(body), `gradient_inputs_accepted_total{channel="file_picker"} 1`))
	assert.True(t, strings.Contains(string(body), `gradient_submissions_total{outcome="success"} 2`))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Submissions.WithLabelValues("success")))
}

func TestNewUsesPrivateRegistry(t *testing.T) {
	a, b := New(), New()
	a.PastesIgnored.Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(a.PastesIgnored))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.PastesIgnored))
}
