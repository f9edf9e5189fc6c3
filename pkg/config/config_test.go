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

package config

import (
	"bytes"
	"fmt"
	"os"
	"runtime"
	"testing"
)

type MockFileReader struct {
	// Mock data or behavior can be customized per test
	Data map[string][]byte
}

func (m MockFileReader) ReadFile(filename string) ([]byte, error) {
	data, exists := m.Data[filename]
	if !exists {
		return nil, fmt.Errorf("file not found")
	}
	return data, nil
}

// Test LoadConfig
func TestLoadConfig(t *testing.T) {
	t.Setenv("ALGOVIS_API_HOST", "0.0.0.0")

	config, err := LoadConfig("./test-config.yml")
	if err != nil {
		t.Fatalf("LoadConfig returned an error: %v", err)
	}
	if IsEmpty(config) {
		t.Fatalf("No config was loaded")
	}

	// values from the file and its environment
	if config.API.Host != "0.0.0.0" {
		t.Errorf("Expected 0.0.0.0, got %v", config.API.Host)
	}
	if config.API.Port != 9090 {
		t.Errorf("Expected port 9090, got %v", config.API.Port)
	}
	if config.API.RateLimit != "5,10" {
		t.Errorf("Expected rate limit 5,10, got %v", config.API.RateLimit)
	}
	if config.API.MaxBodySize != 65536 {
		t.Errorf("Expected max body size 65536, got %v", config.API.MaxBodySize)
	}
	if config.Interpreter.StepLimit != 500 || config.Interpreter.CellLimit != 65536 || !config.Interpreter.StrictCalls || config.Interpreter.MaxConcurrentRuns != 4 {
		t.Errorf("Unexpected interpreter section %+v", config.Interpreter)
	}
	if config.DebugLevel != "debug2" {
		t.Errorf("Expected debug2, got %v", config.DebugLevel)
	}

	// values from the included file
	if !config.Cache.Enabled || config.Cache.TTL != 120 || config.Cache.MaxEntries != 256 || config.Cache.Fingerprint != "murmur3" {
		t.Errorf("Unexpected cache section %+v", config.Cache)
	}

	// defaults
	if config.API.SSLMode != "disable" {
		t.Errorf("Expected sslmode disable, got %v", config.API.SSLMode)
	}
	if config.Interpreter.MaxNestingDepth != 1000 {
		t.Errorf("Expected max nesting depth 1000, got %v", config.Interpreter.MaxNestingDepth)
	}
	if config.Prometheus.Port != 9091 {
		t.Errorf("Expected prometheus port 9091, got %v", config.Prometheus.Port)
	}
	if config.OS != runtime.GOOS {
		t.Errorf("Expected OS %v, got %v", runtime.GOOS, config.OS)
	}
}

// Test LoadConfigInvalidFile
func TestLoadConfigInvalidFile(t *testing.T) {
	config, err := LoadConfig("./invalid_test_config.yaml")
	if err == nil {
		t.Errorf("Expected error, got none")
	}
	if config.API.Port != 8080 {
		t.Errorf("Expected defaults to be applied, got port %v", config.API.Port)
	}
}

// Test NewConfig
func TestNewConfig(t *testing.T) {
	config := NewConfig()
	if config.Interpreter.StepLimit != 1000 {
		t.Errorf("Expected step limit 1000, got %v", config.Interpreter.StepLimit)
	}
	if config.Interpreter.CellLimit != 1<<23 {
		t.Errorf("Expected cell limit %d, got %v", 1<<23, config.Interpreter.CellLimit)
	}
	if config.Interpreter.MaxConcurrentRuns != runtime.NumCPU() {
		t.Errorf("Expected %d concurrent runs, got %v", runtime.NumCPU(), config.Interpreter.MaxConcurrentRuns)
	}
	if config.Cache.Fingerprint != "blake2b" || config.Cache.Enabled {
		t.Errorf("Unexpected cache defaults %+v", config.Cache)
	}
	if config.API.CORSOrigin != "*" {
		t.Errorf("Expected CORS origin *, got %v", config.API.CORSOrigin)
	}
	if config.Remote.Timeout != 30 || config.Remote.MaxSize != config.API.MaxBodySize {
		t.Errorf("Unexpected remote defaults %+v", config.Remote)
	}
}

// Test IsEmpty
func TestIsEmpty(t *testing.T) {
	nonEmptyConfig := Config{
		API: API{
			Port: 8080,
		},
		OS:         "linux",
		DebugLevel: "info",
	}
	if IsEmpty(nonEmptyConfig) {
		t.Errorf("Expected false, got true")
	}

	emptyConfig := Config{}
	if !IsEmpty(emptyConfig) {
		t.Errorf("Expected true, got false")
	}
}

// Test interpolateEnvVars
func TestInterpolateEnvVars(t *testing.T) {
	t.Setenv("ALGOVIS_TEST_PORT", "7000")
	tests := []struct {
		input    string
		expected string
	}{
		{"port: ${ALGOVIS_TEST_PORT}", "port: 7000"},
		{"port: $ALGOVIS_TEST_PORT", "port: 7000"},
		{"host: ${ALGOVIS_TEST_UNSET}", "host: "},
		{"no variables here", "no variables here"},
	}
	for _, test := range tests {
		if got := interpolateEnvVars(test.input); got != test.expected {
			t.Errorf("interpolateEnvVars(%q): expected %q, got %q", test.input, test.expected, got)
		}
	}
}

// Test recursiveInclude
func TestRecursiveInclude(t *testing.T) {
	baseDir := "/path/to/base"
	yamlContent := `include: "config.yaml"`
	mockData := map[string][]byte{
		"/path/to/base/config.yaml": []byte("content: value"),
	}
	mockReader := MockFileReader{Data: mockData}

	result, err := recursiveInclude(yamlContent, baseDir, mockReader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `content: value`
	if result != expected {
		t.Errorf("expected %q, got %q", expected, result)
	}
}

// Test nested and circular includes
func TestRecursiveIncludeNested(t *testing.T) {
	mockReader := MockFileReader{Data: map[string][]byte{
		"/base/a.yaml":     []byte("include: sub/b.yaml"),
		"/base/sub/b.yaml": []byte("debug_level: info"),
		"/base/loop.yaml":  []byte("include: loop.yaml"),
	}}

	result, err := recursiveInclude("include: a.yaml", "/base", mockReader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "debug_level: info" {
		t.Errorf("expected nested include to be expanded, got %q", result)
	}

	if _, err := recursiveInclude("include: loop.yaml", "/base", mockReader); err == nil {
		t.Errorf("expected an error for a circular include")
	}
	if _, err := recursiveInclude("include: missing.yaml", "/base", mockReader); err == nil {
		t.Errorf("expected an error for a missing include")
	}
}

// Test ReadFile
func TestReadFile(t *testing.T) {
	tempFile, err := os.CreateTemp("", "test-file")
	if err != nil {
		t.Fatalf("Failed to create temporary file: %v", err)
	}
	defer os.Remove(tempFile.Name())

	data := []byte("test data")
	if _, err := tempFile.Write(data); err != nil {
		t.Fatalf("Failed to write data to temporary file: %v", err)
	}
	if err := tempFile.Close(); err != nil {
		t.Fatalf("Failed to close temporary file: %v", err)
	}

	reader := OsFileReader{}
	result, err := reader.ReadFile(tempFile.Name())
	if err != nil {
		t.Fatalf("ReadFile returned an error: %v", err)
	}
	if !bytes.Equal(result, data) {
		t.Errorf("Expected %v, got %v", data, result)
	}
}

// Test ParseConfig
func TestParseConfig(t *testing.T) {
	config, err := ParseConfig([]byte("  \n"))
	if err != nil || !IsEmpty(config) {
		t.Errorf("Expected an empty config, got %+v (%v)", config, err)
	}

	if _, err := ParseConfig([]byte("api: [unterminated")); err == nil {
		t.Errorf("Expected a YAML error")
	}
}
