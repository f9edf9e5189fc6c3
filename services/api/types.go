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
	"sync/atomic"

	cmn "github.com/pzaino/algovisualizer/pkg/common"
	cfg "github.com/pzaino/algovisualizer/pkg/config"
	fp "github.com/pzaino/algovisualizer/pkg/fingerprints"
	"github.com/pzaino/algovisualizer/pkg/interpreter"

	"golang.org/x/time/rate"
)

// VisualizeRequest is the body accepted by the visualize endpoint
type VisualizeRequest struct {
	Code string `json:"code"`
}

// VisualizeResponse is returned when a program runs to completion
type VisualizeResponse struct {
	Status string            `json:"status"`
	Steps  interpreter.Trace `json:"steps"`
}

// ErrorResponse is returned for every rejected request
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// HealthCheck represents the health status of the service
type HealthCheck struct {
	Status string `json:"status"`
}

// ReadyCheck represents the readiness status of the service
type ReadyCheck struct {
	Status string `json:"status"`
}

// cachedResponse is what the trace cache keeps for a program: the exact
// status and body that were sent the first time.
type cachedResponse struct {
	StatusCode int
	Body       []byte
}

// serviceState holds everything initAll derives from the configuration.
// It is replaced as a whole on reload.
type serviceState struct {
	config      cfg.Config
	limiter     *rate.Limiter
	runs        chan struct{}      // one slot per interpreter run allowed at once
	cache       *cmn.KeyValueStore // nil when the trace cache is disabled
	fingerprint fp.Fingerprint
}

var state atomic.Pointer[serviceState]

func getState() *serviceState {
	return state.Load()
}
