package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	m := New(prometheus.NewRegistry())

	require.NotNil(t, m)
	assert.NotNil(t, m.GenerationsTotal)
	assert.NotNil(t, m.GenerationDurationSeconds)
	assert.NotNil(t, m.DocumentBytes)
	assert.NotNil(t, m.HTTPRequestsTotal)
}

func TestNew_SeparateRegistries(t *testing.T) {
	// each registry gets its own collectors; no duplicate registration panic
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}

func TestObserveGeneration(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveGeneration("success", 30*time.Millisecond, 24*1024)
	m.ObserveGeneration("success", 10*time.Millisecond, 20*1024)
	m.ObserveGeneration("validation_error", time.Millisecond, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.GenerationsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationsTotal.WithLabelValues("validation_error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.GenerationsTotal.WithLabelValues("template_error")))

	expected := `
# HELP contract_document_bytes Size of generated contract documents in bytes
# TYPE contract_document_bytes histogram
contract_document_bytes_bucket{le="8192"} 0
contract_document_bytes_bucket{le="16384"} 0
contract_document_bytes_bucket{le="32768"} 2
contract_document_bytes_bucket{le="65536"} 2
contract_document_bytes_bucket{le="131072"} 2
contract_document_bytes_bucket{le="262144"} 2
contract_document_bytes_bucket{le="524288"} 2
contract_document_bytes_bucket{le="1.048576e+06"} 2
contract_document_bytes_bucket{le="+Inf"} 2
contract_document_bytes_sum 45056
contract_document_bytes_count 2
`
	err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "contract_document_bytes")
	assert.NoError(t, err)

	count, err := testutil.GatherAndCount(registry, "contract_generation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRecordHTTPRequest(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordHTTPRequest("/api/contracts", "200")
	m.RecordHTTPRequest("/api/contracts", "200")
	m.RecordHTTPRequest("/api/contracts", "422")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/api/contracts", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/api/contracts", "422")))
}
