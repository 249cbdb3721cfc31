package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	m := Init(true)
	require.NotNil(t, m)

	metrics, ok := m.(*Metrics)
	require.True(t, ok, "Init(true) should return *Metrics")
	assert.NotNil(t, metrics.TokensIssuedTotal)
	assert.NotNil(t, metrics.AuthLoginTotal)
	assert.NotNil(t, metrics.HTTPRequestsTotal)

	assert.Same(t, metrics, Init(true), "Init should register metrics only once")
}

func TestInitNoop(t *testing.T) {
	m := Init(false)
	_, ok := m.(*NoopMetrics)
	assert.True(t, ok, "Init(false) should return *NoopMetrics")

	// Must not panic
	m.RecordTokenIssued(time.Millisecond)
	m.RecordTokenValidation("valid", time.Millisecond)
	m.RecordLogin(true, time.Millisecond)
	m.RecordRegistration("success")
	m.RecordOAuthCallback("github", false)
}

func TestRecordTokenMetrics(t *testing.T) {
	m := Init(true).(*Metrics)

	issued := testutil.ToFloat64(m.TokensIssuedTotal)
	m.RecordTokenIssued(10 * time.Millisecond)
	assert.Equal(t, issued+1, testutil.ToFloat64(m.TokensIssuedTotal))

	expired := testutil.ToFloat64(m.TokenValidationTotal.WithLabelValues("expired"))
	m.RecordTokenValidation("expired", time.Millisecond)
	assert.Equal(t, expired+1, testutil.ToFloat64(m.TokenValidationTotal.WithLabelValues("expired")))
}

func TestRecordLogin(t *testing.T) {
	m := Init(true).(*Metrics)

	success := testutil.ToFloat64(m.AuthLoginTotal.WithLabelValues(resultSuccess))
	failure := testutil.ToFloat64(m.AuthLoginTotal.WithLabelValues(resultFailure))

	m.RecordLogin(true, 50*time.Millisecond)
	m.RecordLogin(false, 50*time.Millisecond)
	m.RecordLogin(false, 50*time.Millisecond)

	assert.Equal(t, success+1, testutil.ToFloat64(m.AuthLoginTotal.WithLabelValues(resultSuccess)))
	assert.Equal(t, failure+2, testutil.ToFloat64(m.AuthLoginTotal.WithLabelValues(resultFailure)))
}

func TestRecordRegistrationAndOAuth(t *testing.T) {
	m := Init(true).(*Metrics)

	dup := testutil.ToFloat64(m.AuthRegistrationsTotal.WithLabelValues("duplicate"))
	m.RecordRegistration("duplicate")
	assert.Equal(t, dup+1, testutil.ToFloat64(m.AuthRegistrationsTotal.WithLabelValues("duplicate")))

	failed := testutil.ToFloat64(m.AuthOAuthCallbackTotal.WithLabelValues("google", resultError))
	m.RecordOAuthCallback("google", false)
	assert.Equal(t, failed+1, testutil.ToFloat64(m.AuthOAuthCallbackTotal.WithLabelValues("google", resultError)))
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := Init(true).(*Metrics)

	r := gin.New()
	r.Use(HTTPMetricsMiddleware(m))
	r.GET("/api/users/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	counter := m.HTTPRequestsTotal.WithLabelValues("GET", "/api/users/:id", "200")
	unknown := m.HTTPRequestsTotal.WithLabelValues("GET", "unknown", "404")
	before, beforeUnknown := testutil.ToFloat64(counter), testutil.ToFloat64(unknown)

	for _, path := range []string{"/api/users/1", "/api/users/2", "/nope", "/metrics"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
	assert.Equal(t, beforeUnknown+1, testutil.ToFloat64(unknown))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.HTTPRequestsInFlight))
}

func TestHTTPMetricsMiddleware_Noop(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(HTTPMetricsMiddleware(NewNoopMetrics()))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, "pong", w.Body.String())
}
