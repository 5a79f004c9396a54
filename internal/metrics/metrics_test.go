package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMetricsCounters(t *testing.T) {
	m := NewRunMetrics()
	m.RecordsParsed.Add(3)
	m.RecordsStored.Add(2)
	m.RecordsFailed.Inc()

	assert.Equal(t, 3.0, testutil.ToFloat64(m.RecordsParsed))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RecordsStored))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordsFailed))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RunsFailed))

	count, err := testutil.GatherAndCount(m.Registry())
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestRunMetricsPush(t *testing.T) {
	var (
		mu   sync.Mutex
		path string
		body string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		path = r.URL.Path
		body = string(b)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m := NewRunMetrics()
	m.RecordsStored.Add(7)
	require.NoError(t, m.Push(server.URL))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/metrics/job/"+pushJob, path)
	assert.True(t, strings.Contains(body, "traveltimes_records_stored_total"), "pushed body should carry the stored counter")
}

func TestRunMetricsPushFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := NewRunMetrics().Push(server.URL)
	assert.Error(t, err)
}
