package observability

import (
	"errors"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/plain")
	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	return string(body)
}

func TestNewMetrics_AllCollectorsSet(t *testing.T) {
	for i, c := range NewMetrics().collectors() {
		assert.NotNil(t, c, "collector %d", i)
	}
}

func TestMetrics_RecordRequest(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("GET", "/api/status", 200, 100*time.Millisecond, 0, 512)
	m.RecordRequest("GET", "/api/status", 200, 50*time.Millisecond, 0, 512)
	m.RecordRequest("GET", "/", 500, 10*time.Millisecond, 0, 64)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestCount.WithLabelValues("GET", "/api/status", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCount.WithLabelValues("GET", "/", "500")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.ResponseSize))
}

func TestMetrics_RecordProbe(t *testing.T) {
	m := NewMetrics()

	m.RecordProbe("bind_dns", true, 20*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ServiceUp.WithLabelValues("bind_dns")))

	m.RecordProbe("bind_dns", false, 2*time.Second)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ServiceUp.WithLabelValues("bind_dns")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProbesTotal.WithLabelValues("bind_dns", "up")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProbesTotal.WithLabelValues("bind_dns", "down")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ProbeDuration))
}

func TestMetrics_ForgetService(t *testing.T) {
	m := NewMetrics()

	m.RecordProbe("smtp", true, time.Millisecond)
	m.RecordProbe("smtp", false, time.Millisecond)
	m.RecordProbe("pop3", false, time.Millisecond)
	m.ForgetService("smtp")

	assert.Equal(t, 1, testutil.CollectAndCount(m.ServiceUp))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ProbesTotal))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ProbeDuration))
}

func TestMetrics_RecordRefresh(t *testing.T) {
	m := NewMetrics()

	for _, err := range []error{nil, errors.New("connection refused"), nil} {
		m.RecordRefresh(err)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PageRefreshes.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PageRefreshes.WithLabelValues("error")))
}

func TestMetrics_SetHealthStatus(t *testing.T) {
	m := NewMetrics()

	m.SetHealthStatus(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HealthStatus))
	m.SetHealthStatus(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.HealthStatus))
}

func TestMetrics_HandlerServesNamespacedSeries(t *testing.T) {
	m := NewMetrics()
	require.NoError(t, m.Register())

	m.RecordProbe("ecom", true, time.Millisecond)
	m.RecordRequest("GET", "/", 200, time.Millisecond, 0, 10)
	m.SetHealthStatus(true)

	body := scrape(t, m)
	assert.Contains(t, body, `status_board_service_up{service="ecom"} 1`)
	assert.Contains(t, body, `status_board_http_requests_total{endpoint="/",method="GET",status_code="200"} 1`)
	assert.Contains(t, body, "status_board_healthy 1")
	assert.False(t, strings.Contains(body, "go_goroutines"), "private registry should not carry runtime collectors")
}

func TestMetrics_RegisterTwiceUsesFreshRegistry(t *testing.T) {
	m := NewMetrics()
	require.NoError(t, m.Register())
	first := m.registry
	require.NoError(t, m.Register())
	assert.NotSame(t, first, m.registry)
}

func TestMetrics_ConcurrentAccess(t *testing.T) {
	m := NewMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			service := "service-" + strconv.Itoa(id)
			for j := 0; j < 100; j++ {
				m.RecordRequest("GET", "/endpoint-"+strconv.Itoa(id), 200, 10*time.Millisecond, int64(j*100), int64(j*200))
				m.RecordProbe(service, j%2 == 0, time.Millisecond)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 100.0, testutil.ToFloat64(m.RequestCount.WithLabelValues("GET", "/endpoint-3", "200")))
	assert.Equal(t, 50.0, testutil.ToFloat64(m.ProbesTotal.WithLabelValues("service-3", "up")))
}
