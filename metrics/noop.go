// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import "net/http"

// discard is both the registry and every meter while metrics are disabled,
// so ledger calls record nothing until InitializePrometheusMetrics runs.
type discard struct{}

func defaultNoopMetrics() Metrics { return discard{} }

func (discard) GetOrCreateCountMeter(string) CountMeter { return discard{} }
func (discard) GetOrCreateCountVecMeter(string, []string) CountVecMeter { return discard{} }
func (discard) GetOrCreateGaugeMeter(string) GaugeMeter { return discard{} }
func (discard) GetOrCreateGaugeVecMeter(string, []string) GaugeVecMeter { return discard{} }
func (discard) GetOrCreateHistogramMeter(string, []int64) HistogramMeter {
	return discard{}
}

func (discard) GetOrCreateHistogramVecMeter(string, []string, []int64) HistogramVecMeter {
	return discard{}
}
func (discard) GetOrCreateHandler() http.Handler { return nil }

func (discard) Add(int64) {}
func (discard) AddWithLabel(int64, map[string]string) {}
func (discard) Set(int64) {}
func (discard) SetWithLabel(int64, map[string]string) {}
func (discard) Observe(int64) {}
func (discard) ObserveWithLabels(int64, map[string]string) {}
