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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	cmn "github.com/pzaino/algovisualizer/pkg/common"
	cfg "github.com/pzaino/algovisualizer/pkg/config"
	fp "github.com/pzaino/algovisualizer/pkg/fingerprints"
	"github.com/pzaino/algovisualizer/pkg/interpreter"

	"golang.org/x/time/rate"
)

const (
	defaultRate  = 10
	defaultBurst = 10

	traceCacheCtx = "trace"
)

// handleErrorAndRespond encapsulates common error handling and JSON response logic.
// On error the body is {"detail": errMsg formatted with err}, otherwise it is
// results. It returns the status and the body actually written.
func handleErrorAndRespond(w http.ResponseWriter, err error, results interface{}, errMsg string, errCode int, successCode int) (int, []byte) {
	var response interface{}
	status := successCode
	if status == 0 {
		status = http.StatusOK
	}

	if err != nil {
		cmn.DebugMsg(cmn.DbgLvlDebug3, errMsg, err)
		detail := err.Error()
		if errMsg != "" {
			detail = fmt.Sprintf(errMsg, err)
		}
		response = ErrorResponse{Detail: detail}
		status = errCode
	} else {
		response = results
	}

	body, mErr := json.Marshal(response)
	if mErr != nil {
		cmn.DebugMsg(cmn.DbgLvlDebug3, "Error encoding JSON response: %v", mErr)
		cmn.DebugMsg(cmn.DbgLvlDebug3, "Original Results: %+v", results)
		status = http.StatusInternalServerError
		body = []byte(`{"detail":"Internal Server Error"}`)
	}
	writeJSONBody(w, status, body)
	return status, body
}

// writeJSONBody sends an already encoded JSON document.
func writeJSONBody(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		cmn.DebugMsg(cmn.DbgLvlDebug3, "Error writing response: %v", err)
	}
	_, _ = w.Write([]byte("\n"))
}

// parseRateLimit reads a "requests per second,burst" setting. Missing or
// malformed parts fall back to the defaults.
func parseRateLimit(setting string) (rate.Limit, int) {
	setting = strings.TrimSpace(setting)
	if setting == "" {
		return defaultRate, defaultBurst
	}
	rlStr, blStr, _ := strings.Cut(setting, ",")

	rl, err := strconv.ParseFloat(strings.TrimSpace(rlStr), 64)
	if err != nil || rl <= 0 {
		rl = defaultRate
	}
	bl, err := strconv.Atoi(strings.TrimSpace(blStr))
	if err != nil || bl <= 0 {
		bl = defaultBurst
	}
	return rate.Limit(rl), bl
}

// newServiceState builds the limiter, the run slots and the trace cache
// described by config.
func newServiceState(config cfg.Config) (*serviceState, error) {
	rl, bl := parseRateLimit(config.API.RateLimit)

	slots := config.Interpreter.MaxConcurrentRuns
	if slots <= 0 {
		slots = runtime.NumCPU()
	}

	st := &serviceState{
		config:  config,
		limiter: rate.NewLimiter(rl, bl),
		runs:    make(chan struct{}, slots),
	}

	if config.Cache.Enabled {
		fingerprint, err := fp.New(config.Cache.Fingerprint)
		if err != nil {
			return nil, fmt.Errorf("configuring trace cache: %w", err)
		}
		if cmn.KVStore == nil {
			cmn.KVStore = cmn.NewBoundedKeyValueStore(config.Cache.MaxEntries)
		} else {
			cmn.KVStore.SetMaxEntries(config.Cache.MaxEntries)
		}
		st.cache = cmn.KVStore
		st.fingerprint = fingerprint
	}
	return st, nil
}

// runOptions translates the interpreter section of the configuration.
func (st *serviceState) runOptions() []interpreter.Option {
	return []interpreter.Option{
		interpreter.WithStepLimit(st.config.Interpreter.StepLimit),
		interpreter.WithCellLimit(st.config.Interpreter.CellLimit),
		interpreter.WithMaxNestingDepth(st.config.Interpreter.MaxNestingDepth),
		interpreter.WithStrictCalls(st.config.Interpreter.StrictCalls),
	}
}

// cacheKey identifies a program together with the limits it runs under,
// so a reload with different limits never serves stale traces.
func (st *serviceState) cacheKey(code string) string {
	opts := fmt.Sprintf("%d:%d:%d:%t\x00",
		st.config.Interpreter.StepLimit,
		st.config.Interpreter.CellLimit,
		st.config.Interpreter.MaxNestingDepth,
		st.config.Interpreter.StrictCalls)
	return st.fingerprint.Compute(opts + code)
}

func (st *serviceState) lookup(key string) (cachedResponse, bool) {
	if st.cache == nil {
		return cachedResponse{}, false
	}
	v, _, err := st.cache.Get(key, traceCacheCtx)
	if err != nil {
		if !cmn.KVSErrorIsKeyNotFound(err) {
			cmn.DebugMsg(cmn.DbgLvlDebug, "Trace cache lookup failed: %v", err)
		}
		return cachedResponse{}, false
	}
	resp, ok := v.(cachedResponse)
	if !ok {
		cmn.DebugMsg(cmn.DbgLvlDebug, "Dropping trace cache entry of type %T", v)
		if err := st.cache.Delete(key, traceCacheCtx); err != nil {
			cmn.DebugMsg(cmn.DbgLvlDebug, "Trace cache delete failed: %v", err)
		}
	}
	return resp, ok
}

func (st *serviceState) remember(key string, status int, body []byte) {
	if st.cache == nil {
		return
	}
	ttl := time.Duration(st.config.Cache.TTL) * time.Second
	props := cmn.NewKVStoreProperty("visualize", traceCacheCtx, ttl)
	props.Type = "trace"
	if err := st.cache.Set(key, cachedResponse{StatusCode: status, Body: body}, props); err != nil {
		cmn.DebugMsg(cmn.DbgLvlDebug, "Trace cache store failed: %v", err)
	}
}

// errorKindIndex maps an execution error to its slot in executionErrors.
func errorKindIndex(err error) int {
	var ee *interpreter.ExecutionError
	if !errors.As(err, &ee) || int(ee.Kind) < 0 || int(ee.Kind) >= len(executionErrors) {
		return 0
	}
	return int(ee.Kind)
}
