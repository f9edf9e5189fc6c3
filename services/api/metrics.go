// Copyright 2023 Paolo Fabio Zaino
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

package main

import (
	"strconv"
	"sync/atomic"

	cmn "github.com/pzaino/algovisualizer/pkg/common"
	"github.com/pzaino/algovisualizer/pkg/interpreter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	// Counters for monitoring (atomic)
	totalRequests atomic.Int64
	totalErrors   atomic.Int64
	totalSuccess  atomic.Int64
	cacheHits     atomic.Int64
	rejectedRuns  atomic.Int64

	// executionErrors is indexed by interpreter.ErrorKind, slot 0 is unused
	executionErrors [int(interpreter.IterationLimitExceededError) + 1]atomic.Int64
)

// -------------------------------------------
// Handle Prometheus Push-Gateway Metrics
//--------------------------------------------

var (
	gaugeTotalRequests = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "algovisualizer_total_requests",
			Help: "Total number of visualize requests",
		},
		[]string{"engine"},
	)

	gaugeTotalErrors = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "algovisualizer_total_errors",
			Help: "Total number of rejected or failed visualize requests",
		},
		[]string{"engine"},
	)

	gaugeTotalSuccess = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "algovisualizer_total_success",
			Help: "Total number of programs traced to completion",
		},
		[]string{"engine"},
	)

	gaugeCacheHits = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "algovisualizer_cache_hits",
			Help: "Total number of responses served from the trace cache",
		},
		[]string{"engine"},
	)

	gaugeRejectedRuns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "algovisualizer_rejected_runs",
			Help: "Total number of runs rejected because every interpreter slot was busy",
		},
		[]string{"engine"},
	)

	gaugeCacheEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "algovisualizer_cache_entries",
			Help: "Number of responses held in the trace cache",
		},
		[]string{"engine"},
	)

	gaugeExecutionErrors = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "algovisualizer_execution_errors",
			Help: "Total number of execution errors by kind",
		},
		[]string{"engine", "kind"},
	)
)

func init() {
	prometheus.MustRegister(
		gaugeTotalRequests,
		gaugeTotalErrors,
		gaugeTotalSuccess,
		gaugeCacheHits,
		gaugeRejectedRuns,
		gaugeCacheEntries,
		gaugeExecutionErrors,
	)
}

// collectMetrics copies the counters into the gauges.
func collectMetrics(engine string) {
	labels := prometheus.Labels{
		"engine": engine,
	}

	gaugeTotalRequests.With(labels).Set(float64(totalRequests.Load()))
	gaugeTotalErrors.With(labels).Set(float64(totalErrors.Load()))
	gaugeTotalSuccess.With(labels).Set(float64(totalSuccess.Load()))
	gaugeCacheHits.With(labels).Set(float64(cacheHits.Load()))
	gaugeRejectedRuns.With(labels).Set(float64(rejectedRuns.Load()))
	gaugeCacheEntries.With(labels).Set(float64(cmn.KVStore.Size()))

	for kind := 1; kind < len(executionErrors); kind++ {
		gaugeExecutionErrors.With(prometheus.Labels{
			"engine": engine,
			"kind":   interpreter.ErrorKind(kind).String(),
		}).Set(float64(executionErrors[kind].Load()))
	}
}

func updateMetrics() {
	st := getState()
	if st == nil || !st.config.Prometheus.Enabled {
		return
	}

	engine := cmn.GetMicroServiceName()
	url := "http://" + st.config.Prometheus.Host + ":" + strconv.Itoa(st.config.Prometheus.Port)

	collectMetrics(engine)

	p := push.New(url, "algovisualizer_api").
		Collector(gaugeTotalRequests).
		Collector(gaugeTotalErrors).
		Collector(gaugeTotalSuccess).
		Collector(gaugeCacheHits).
		Collector(gaugeRejectedRuns).
		Collector(gaugeCacheEntries).
		Collector(gaugeExecutionErrors)

	if err := p.Push(); err != nil {
		cmn.DebugMsg(cmn.DbgLvlError, "API: Could not push metrics: %v", err)
	} else {
		cmn.DebugMsg(cmn.DbgLvlDebug3, "API: Metrics pushed for engine=%s", engine)
	}
}
