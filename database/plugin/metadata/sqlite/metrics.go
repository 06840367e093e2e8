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

package sqlite

import "github.com/prometheus/client_golang/prometheus"

const sqliteMetricNamePrefix = "database_metadata_"

func (d *MetadataStoreSqlite) registerMetadataMetrics() {
	sqlDb, err := d.db.DB()
	if err != nil {
		d.logger.Warn(
			"metadata metrics unavailable",
			"component", "database",
			"error", err,
		)
		return
	}
	inUse := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: sqliteMetricNamePrefix + "connections_in_use",
			Help: "Metadata store connections currently in use",
		},
		func() float64 {
			return float64(sqlDb.Stats().InUse)
		},
	)
	waitCount := prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: sqliteMetricNamePrefix + "connection_waits_total",
			Help: "Total number of waits for a metadata store connection",
		},
		func() float64 {
			return float64(sqlDb.Stats().WaitCount)
		},
	)
	d.promRegistry.MustRegister(inUse, waitCount)
}
