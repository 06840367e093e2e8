// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type ledgerMetrics struct {
	operations        *prometheus.CounterVec
	totalAttestations prometheus.Gauge
	totalCertificates prometheus.Gauge
	paused            prometheus.Gauge
}

func (m *ledgerMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.operations = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attest_ledger_operations_total",
			Help: "total ledger operations by operation and result",
		},
		[]string{"operation", "result"},
	)
	m.totalAttestations = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "attest_ledger_total_attestations",
		Help: "attestations ever created",
	})
	m.totalCertificates = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "attest_ledger_total_certificates",
		Help: "certificates ever minted",
	})
	m.paused = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "attest_ledger_paused",
		Help: "whether the program is paused (0 or 1)",
	})
}

func (m *ledgerMetrics) observeConfig(cfg *ProgramConfig) {
	if m == nil || cfg == nil {
		return
	}
	m.totalAttestations.Set(float64(cfg.TotalAttestations))
	m.totalCertificates.Set(float64(cfg.TotalCertificates))
	if cfg.IsPaused {
		m.paused.Set(1)
	} else {
		m.paused.Set(0)
	}
}

func (m *ledgerMetrics) observeOperation(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = ErrorKind(err)
	}
	m.operations.WithLabelValues(op, result).Inc()
}
