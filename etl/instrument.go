// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package etl

import (
	"github.com/penny-vault/pvratio/data"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pvratio_etl_runs_total",
			Help: "Number of ingestion runs by outcome",
		},
		[]string{"status"},
	)

	recordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pvratio_etl_records_total",
			Help: "Statement records processed by result (inserted or duplicate)",
		},
		[]string{"result"},
	)

	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pvratio_etl_requests_total",
			Help: "Provider requests by source (api or cache)",
		},
		[]string{"source"},
	)

	upstreamErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pvratio_etl_upstream_errors_total",
			Help: "Provider responses rejected as upstream errors",
		},
	)

	lastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pvratio_etl_last_success_timestamp_seconds",
			Help: "Unix time the last successful ingestion run finished",
		},
	)
)

func recordRun(summary *data.RunSummary, err error) {
	recordsTotal.WithLabelValues("inserted").Add(float64(summary.NumInserted))
	recordsTotal.WithLabelValues("duplicate").Add(float64(summary.NumDuplicates))
	requestsTotal.WithLabelValues("api").Add(float64(summary.APICalls))
	requestsTotal.WithLabelValues("cache").Add(float64(summary.CacheHits))
	upstreamErrorsTotal.Add(float64(summary.UpstreamErrors))

	if err != nil {
		runsTotal.WithLabelValues("failure").Inc()
		return
	}

	runsTotal.WithLabelValues("success").Inc()
	lastSuccess.Set(float64(summary.EndTime.Unix()))
}
