package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordCharge(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCharge("chat", 5)
	c.RecordCharge("chat", 10)
	c.RecordInsufficientCredits("plan")

	assert.Equal(t, 15.0, testutil.ToFloat64(c.creditsCharged.WithLabelValues("chat")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.insufficientCredits.WithLabelValues("plan")))
}

func TestCollector_SessionsAndBadges(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSessionCompleted(30 * time.Minute)
	c.RecordBadgeAwarded("week-warrior")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.sessionsCompleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.badgesAwarded.WithLabelValues("week-warrior")))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordGrant("signup", 50)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "planner_credits_granted_total"))
}
