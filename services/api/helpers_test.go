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
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestParseRateLimit(t *testing.T) {
	tests := []struct {
		name  string
		input string
		rate  rate.Limit
		burst int
	}{
		{"Empty", "", 10, 10},
		{"RateAndBurst", "5,20", 5, 20},
		{"RateOnly", "3", 3, 10},
		{"Fractional", "0.5,1", 0.5, 1},
		{"Spaces", " 7 , 8 ", 7, 8},
		{"Garbage", "fast,lots", 10, 10},
		{"Negative", "-1,-1", 10, 10},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rl, bl := parseRateLimit(test.input)
			assert.InDelta(t, float64(test.rate), float64(rl), 1e-9)
			assert.Equal(t, test.burst, bl)
		})
	}
}

func TestHandleErrorAndRespond(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		w := httptest.NewRecorder()
		status, body := handleErrorAndRespond(w, nil, HealthCheck{Status: "OK"}, "", http.StatusInternalServerError, 0)

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"OK"}`, string(body))
		assert.JSONEq(t, `{"status":"OK"}`, w.Body.String())
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	})

	t.Run("Error", func(t *testing.T) {
		w := httptest.NewRecorder()
		status, body := handleErrorAndRespond(w, errors.New("boom"), nil, "Execution Error: %v", http.StatusBadRequest, http.StatusOK)

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"detail":"Execution Error: boom"}`, string(body))
	})

	t.Run("Unencodable", func(t *testing.T) {
		w := httptest.NewRecorder()
		status, _ := handleErrorAndRespond(w, nil, math.Inf(1), "", 0, http.StatusOK)

		assert.Equal(t, http.StatusInternalServerError, status)
		assert.JSONEq(t, `{"detail":"Internal Server Error"}`, w.Body.String())
	})
}
