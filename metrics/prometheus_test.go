// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"io"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T) map[string]*dto.MetricFamily {
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	out := make(map[string]*dto.MetricFamily)
	for _, mf := range families {
		out[mf.GetName()] = mf
	}
	return out
}

func sumGauges(mf *dto.MetricFamily) float64 {
	var total float64
	for _, m := range mf.Metric {
		total += m.GetGauge().GetValue()
	}
	return total
}

func TestPromMetrics(t *testing.T) {
	InitializePrometheusMetrics()

	deposits := Counter("deposits")
	calls := CounterVec("calls", []string{"op", "result"})
	open := Gauge("open_stakes")
	pool := GaugeVec("reward_pool", []string{"kind"})
	latency := Histogram("latency", BucketHTTPReqs)
	latencyByOp := HistogramVec("latency_by_op", []string{"op"}, BucketHTTPReqs)

	for i := range 10 {
		deposits.Add(1)
		// lookups by name return the same meter
		Counter("deposits").Add(1)

		result := "ok"
		if i%2 == 1 {
			result = "revert"
		}
		calls.AddWithLabel(1, map[string]string{"op": "deposit", "result": result})
		latency.Observe(int64(i))
		latencyByOp.ObserveWithLabels(int64(i), map[string]string{"op": strconv.Itoa(i % 3)})
	}
	open.Add(5)
	open.Add(-2)
	pool.SetWithLabel(100, map[string]string{"kind": "native"})
	pool.AddWithLabel(-40, map[string]string{"kind": "native"})
	pool.AddWithLabel(7, map[string]string{"kind": "fungible"})

	m := gather(t)

	assert.Equal(t, float64(20), m["stakeledger_deposits"].Metric[0].GetCounter().GetValue())
	require.Len(t, m["stakeledger_calls"].Metric, 2)
	for _, metric := range m["stakeledger_calls"].Metric {
		assert.Equal(t, float64(5), metric.GetCounter().GetValue())
	}
	assert.Equal(t, float64(3), m["stakeledger_open_stakes"].Metric[0].GetGauge().GetValue())
	assert.Equal(t, float64(67), sumGauges(m["stakeledger_reward_pool"]))
	assert.Equal(t, float64(45), m["stakeledger_latency"].Metric[0].GetHistogram().GetSampleSum())
	assert.Equal(t, uint64(10), m["stakeledger_latency"].Metric[0].GetHistogram().GetSampleCount())
	assert.Len(t, m["stakeledger_latency_by_op"].Metric, 3)
}

func TestPromHandler(t *testing.T) {
	InitializePrometheusMetrics()
	Counter("handler_hits").Add(3)

	server := httptest.NewServer(HTTPHandler())
	t.Cleanup(server.Close)

	resp, err := server.Client().Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(body), "stakeledger_handler_hits 3")
}

func TestLazyLoading(t *testing.T) {
	metrics = defaultNoopMetrics() // back to the disabled state

	for _, a := range []any{
		Gauge("noopGauge"),
		GaugeVec("noopGauge", nil),
		Counter("noopCounter"),
		CounterVec("noopCounter", nil),
		Histogram("noopHist", nil),
		HistogramVec("noopHist", nil, nil),
	} {
		require.IsType(t, discard{}, a)
	}

	lazyGauge := LazyLoadGauge("lazyGauge")
	lazyGaugeVec := LazyLoadGaugeVec("lazyGaugeVec", nil)
	lazyCounter := LazyLoadCounter("lazyCounter")
	lazyCounterVec := LazyLoadCounterVec("lazyCounterVec", nil)
	lazyHistogram := LazyLoadHistogram("lazyHistogram", nil)
	lazyHistogramVec := LazyLoadHistogramVec("lazyHistogramVec", nil, nil)

	// after initialization, newly created metrics become of the prometheus type
	InitializePrometheusMetrics()

	require.IsType(t, &promGaugeMeter{}, lazyGauge())
	require.IsType(t, &promGaugeVecMeter{}, lazyGaugeVec())
	require.IsType(t, &promCountMeter{}, lazyCounter())
	require.IsType(t, &promCountVecMeter{}, lazyCounterVec())
	require.IsType(t, &promHistogramMeter{}, lazyHistogram())
	require.IsType(t, &promHistogramVecMeter{}, lazyHistogramVec())
}
