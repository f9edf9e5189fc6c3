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
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	cmn "github.com/pzaino/algovisualizer/pkg/common"
	"github.com/pzaino/algovisualizer/pkg/interpreter"
)

var (
	errMethodNotAllowed = errors.New("method not allowed, use POST")
	errOverloaded       = errors.New("interpreter is overloaded, please try again later")
)

func healthCheckHandler(w http.ResponseWriter, _ *http.Request) {
	healthStatus := HealthCheck{
		Status: "OK",
	}
	handleErrorAndRespond(w, nil, healthStatus, "Error in health Check: %v", http.StatusInternalServerError, http.StatusOK)
}

func readyCheckHandler(w http.ResponseWriter, _ *http.Request) {
	msg := ""
	switch getSysReady() {
	case 1: // Starting up
		msg = "STARTING UP"
	case 2: // Ready
		msg = "READY"
	default:
		msg = "NOT READY"
	}

	readyStatus := ReadyCheck{
		Status: msg,
	}
	handleErrorAndRespond(w, nil, readyStatus, "Error in ready Check: %v", http.StatusInternalServerError, http.StatusOK)
}

func routesHandler(w http.ResponseWriter, _ *http.Request) {
	handleErrorAndRespond(w, nil, cmn.GetAPIRoutes(), "Error listing routes: %v", http.StatusInternalServerError, http.StatusOK)
}

// visualizeHandler runs the submitted program and returns its trace.
func visualizeHandler(w http.ResponseWriter, r *http.Request) {
	totalRequests.Add(1)
	st := getState()
	reqID := requestID(r)

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		totalErrors.Add(1)
		handleErrorAndRespond(w, errMethodNotAllowed, nil, "%v", http.StatusMethodNotAllowed, 0)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, st.config.API.MaxBodySize))
	if err != nil {
		totalErrors.Add(1)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
			handleErrorAndRespond(w, err, nil, "%v", http.StatusRequestEntityTooLarge, 0)
			return
		}
		handleErrorAndRespond(w, err, nil, "Error reading request body: %v", http.StatusBadRequest, 0)
		return
	}

	req, err := decodeVisualizeRequest(r.Context(), data)
	if err != nil {
		totalErrors.Add(1)
		handleErrorAndRespond(w, err, nil, "%v", http.StatusUnprocessableEntity, 0)
		return
	}

	var key string
	if st.cache != nil {
		key = st.cacheKey(req.Code)
		if cached, ok := st.lookup(key); ok {
			cacheHits.Add(1)
			countOutcome(cached.StatusCode)
			cmn.DebugMsg(cmn.DbgLvlDebug2, "[%s] Trace served from cache", reqID)
			writeJSONBody(w, cached.StatusCode, cached.Body)
			return
		}
	}

	select {
	case st.runs <- struct{}{}:
		defer func() { <-st.runs }()
	case <-time.After(time.Duration(st.config.API.QueueTimeout) * time.Second):
		rejectedRuns.Add(1)
		totalErrors.Add(1)
		handleErrorAndRespond(w, errOverloaded, nil, "%v", http.StatusTooManyRequests, 0)
		return
	case <-r.Context().Done():
		totalErrors.Add(1)
		cmn.DebugMsg(cmn.DbgLvlDebug, "[%s] Client went away while waiting: %v", reqID, r.Context().Err())
		return
	}

	start := time.Now()
	trace, err := interpreter.Run(req.Code, st.runOptions()...)
	cmn.DebugMsg(cmn.DbgLvlDebug2, "[%s] Run finished in %v", reqID, time.Since(start))

	var (
		status int
		body   []byte
	)
	if err != nil {
		ee, ok := interpreter.AsExecutionError(err)
		if !ok {
			totalErrors.Add(1)
			cmn.DebugMsg(cmn.DbgLvlError, "[%s] Unexpected interpreter failure: %v", reqID, err)
			handleErrorAndRespond(w, err, nil, "Internal Server Error: %v", http.StatusInternalServerError, 0)
			return
		}
		totalErrors.Add(1)
		executionErrors[errorKindIndex(ee)].Add(1)
		cmn.DebugMsg(cmn.DbgLvlDebug, "[%s] %s at line %d: %s", reqID, ee.Kind, ee.Line, ee.Message)
		status, body = handleErrorAndRespond(w, ee, nil, "Execution Error: %v", http.StatusBadRequest, 0)
	} else {
		totalSuccess.Add(1)
		cmn.DebugMsg(cmn.DbgLvlDebug, "[%s] Traced %d steps", reqID, len(trace))
		status, body = handleErrorAndRespond(w, nil, VisualizeResponse{Status: "success", Steps: trace}, "", 0, http.StatusOK)
	}

	if st.cache != nil && status < http.StatusInternalServerError {
		st.remember(key, status, body)
	}
}

// countOutcome updates the counters for a response served from the cache.
func countOutcome(status int) {
	if status == http.StatusOK {
		totalSuccess.Add(1)
		return
	}
	totalErrors.Add(1)
}
