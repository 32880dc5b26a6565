package prometrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Barrister1990/agrilink-sub000/internal/observability"
)

func TestCounterRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg, "agrilink")

	c1 := r.Counter(observability.MUsecaseRequests, "help", "use_case", "outcome")
	c2 := r.Counter(observability.MUsecaseRequests, "help", "use_case", "outcome")
	c1.Add(1, observability.L("use_case", "order.place"), observability.L("outcome", "success"))
	c2.Add(2, observability.L("use_case", "order.place"), observability.L("outcome", "success"))

	n, err := testutil.GatherAndCount(reg, "agrilink_usecase_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	cv, ok := r.(*registry).counters.Load(observability.MUsecaseRequests)
	require.True(t, ok)
	assert.Equal(t, 3.0, testutil.ToFloat64(cv.(*prometheus.CounterVec).WithLabelValues("order.place", "success")))
}

func TestHistogramDefaultsBuckets(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := New(reg, "").Histogram(observability.MUsecaseDuration, "help", nil, "use_case")
	h.Observe(0.2, observability.L("use_case", "order.place"))

	n, err := testutil.GatherAndCount(reg, "usecase_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
