package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)
	return m
}

func TestObserveStore(t *testing.T) {
	m := newTestMetrics(t)

	m.ObserveStore("sheets", "append", time.Now(), nil)
	m.ObserveStore("sheets", "append", time.Now(), errors.New("boom"))
	m.ObserveStore("sheets", "append", time.Now(), nil)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.storeRequests.WithLabelValues("sheets", "append", OutcomeSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.storeRequests.WithLabelValues("sheets", "append", OutcomeError)))
}

func TestMutationAndSync(t *testing.T) {
	m := newTestMetrics(t)

	m.Mutation("applications", "update", errors.New("remote failed"))
	m.Mutation("applications", "update", nil)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.mutations.WithLabelValues("applications", "update", OutcomeRolledBack)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.mutations.WithLabelValues("applications", "update", OutcomeSuccess)))

	at := time.Unix(1_760_000_000, 0)
	m.Sync("load", nil, at)
	m.Sync("refresh", errors.New("offline"), at.Add(time.Hour))
	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(m.lastSyncSecond))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.syncs.WithLabelValues("refresh", OutcomeError)))
}

func TestCacheLookup(t *testing.T) {
	m := newTestMetrics(t)
	m.CacheLookup("headers", true)
	m.CacheLookup("headers", false)
	m.CacheLookup("headers", true)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.cacheLookups.WithLabelValues("headers", "hit")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveStore("sqlite", "list", time.Now(), nil)
		m.CacheLookup("sheet_ids", false)
		m.Mutation("files", "create", nil)
		m.Sync("load", nil, time.Now())
	})
}

func TestDoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}
