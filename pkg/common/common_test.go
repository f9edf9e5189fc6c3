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

package common

import (
	"log"
	"strings"
	"testing"
)

func TestSetDebugLevel(t *testing.T) {
	tests := []struct {
		name     string
		dbgLvl   DbgLevel
		expected DbgLevel
	}{
		{"Debug", DbgLvlDebug, DbgLvlDebug},
		{"Info", DbgLvlInfo, DbgLvlInfo},
		{"Fatal", DbgLvlFatal, DbgLvlFatal},
		{"Debug5", DbgLvlDebug5, DbgLvlDebug5},
	}

	defer SetDebugLevel(DbgLvlNone)
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			SetDebugLevel(test.dbgLvl)
			if GetDebugLevel() != test.expected {
				t.Errorf("Expected debug level %v, but got %v", test.expected, GetDebugLevel())
			}
		})
	}
}

func TestSetDebugLevelFromString(t *testing.T) {
	tests := []struct {
		input    string
		ok       bool
		expected DbgLevel
	}{
		{"info", true, DbgLvlInfo},
		{" Debug3 ", true, DbgLvlDebug3},
		{"warn", true, DbgLvlWarning},
		{"debug", true, DbgLvlDebug1},
		{"2", true, DbgLvlError},
		{"42", false, DbgLvlError},
		{"verbose", false, DbgLvlError},
	}

	defer SetDebugLevel(DbgLvlNone)
	for _, test := range tests {
		ok := SetDebugLevelFromString(test.input)
		if ok != test.ok {
			t.Errorf("SetDebugLevelFromString(%q): expected %v, got %v", test.input, test.ok, ok)
		}
		if GetDebugLevel() != test.expected {
			t.Errorf("SetDebugLevelFromString(%q): expected level %v, got %v", test.input, test.expected, GetDebugLevel())
		}
	}
}

func TestDebugMsg(t *testing.T) {
	tests := []struct {
		name     string
		current  DbgLevel
		dbgLvl   DbgLevel
		msg      string
		args     []interface{}
		expected string
	}{
		{"Debug message at debug level", DbgLvlDebug, DbgLvlDebug, "Debug message", nil, "Debug message\n"},
		{"Debug message below level", DbgLvlInfo, DbgLvlDebug3, "Hidden message", nil, ""},
		{"Error always logged", DbgLvlNone, DbgLvlError, "Failed run: %s", []interface{}{"boom"}, "Failed run: boom\n"},
		{"Info always logged", DbgLvlNone, DbgLvlInfo, "Listening on %d", []interface{}{8080}, "Listening on 8080\n"},
		{"None never logged", DbgLvlDebug5, DbgLvlNone, "Nothing", nil, ""},
	}

	defer SetDebugLevel(DbgLvlNone)
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			SetDebugLevel(test.current)
			logOutput := captureLogOutput(func() {
				DebugMsg(test.dbgLvl, test.msg, test.args...)
			})

			if test.expected == "" {
				if logOutput != "" {
					t.Errorf("Expected no log output, but got %q", logOutput)
				}
				return
			}
			if !strings.HasSuffix(logOutput, test.expected) {
				t.Errorf("Expected log output %q, but got %q", test.expected, logOutput)
			}
		})
	}
}

func TestInitLoggerPrefix(t *testing.T) {
	InitLogger("algovisualizer")
	defer func() { loggerPrefix = "" }()

	if !strings.HasPrefix(loggerPrefix, "algovisualizer [") || !strings.HasSuffix(loggerPrefix, "]: ") {
		t.Errorf("Unexpected logger prefix %q", loggerPrefix)
	}
	if !strings.Contains(loggerPrefix, GetHostName()+":") {
		t.Errorf("Expected host name in logger prefix %q", loggerPrefix)
	}
}

// Helper function to capture log output
func captureLogOutput(f func()) string {
	logOutput := ""
	prev := log.Writer()
	log.SetOutput(&logWriter{&logOutput})
	f()
	log.SetOutput(prev)
	return logOutput
}

// Custom log writer to capture log output
type logWriter struct {
	output *string
}

func (lw *logWriter) Write(p []byte) (n int, err error) {
	*lw.output += string(p)
	return len(p), nil
}

func TestGetMicroServiceName(t *testing.T) {
	t.Setenv("MICROSERVICE_NAME", " tracer-1 ")
	if got := GetMicroServiceName(); got != "tracer-1" {
		t.Errorf("expected %q, got %q", "tracer-1", got)
	}

	t.Setenv("MICROSERVICE_NAME", "")
	if got := GetMicroServiceName(); got != GetHostName() {
		t.Errorf("expected host name %q, got %q", GetHostName(), got)
	}
}
