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
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	cfg "github.com/pzaino/algovisualizer/pkg/config"
	"github.com/pzaino/algovisualizer/pkg/interpreter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeProgram(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	return path
}

func TestRunJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeProgram(t, dir, "sum.py", "total = 0\nfor i in range(3):\n    total += i\n")

	var out bytes.Buffer
	require.NoError(t, run(cliOptions{Format: "json"}, []string{path}, &out))

	var results []struct {
		File   string `json:"file"`
		Status string `json:"status"`
		Steps  []struct {
			Line    int            `json:"line"`
			Message string         `json:"message"`
			Scope   map[string]any `json:"scope"`
		} `json:"steps"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, path, results[0].File)
	assert.Equal(t, statusSuccess, results[0].Status)
	require.NotEmpty(t, results[0].Steps)

	last := results[0].Steps[len(results[0].Steps)-1]
	assert.Equal(t, float64(3), last.Scope["total"])
}

func TestRunReportsFailures(t *testing.T) {
	dir := t.TempDir()
	good := writeProgram(t, dir, "a.py", "x = 1\n")
	bad := writeProgram(t, dir, "b.py", "x = y\n")

	var out bytes.Buffer
	err := run(cliOptions{Format: "json"}, []string{good, bad}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")

	var results []TraceResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &results))
	require.Len(t, results, 2)
	assert.Equal(t, statusSuccess, results[0].Status)
	assert.Equal(t, statusError, results[1].Status)
	require.NotNil(t, results[1].Error)
	assert.Equal(t, "UndefinedVariableError", results[1].Error.Kind)
	assert.Equal(t, 1, results[1].Error.Line)
}

func TestRunStepLimitAndStrict(t *testing.T) {
	dir := t.TempDir()
	loop := writeProgram(t, dir, "loop.py", "a = 1\nb = 2\nc = 3\n")
	call := writeProgram(t, dir, "call.py", "print(1)\n")

	var out bytes.Buffer
	err := run(cliOptions{Format: "text", StepLimit: 2}, []string{loop}, &out)
	require.Error(t, err)
	assert.Contains(t, out.String(), "IterationLimitExceededError")

	out.Reset()
	require.NoError(t, run(cliOptions{Format: "text"}, []string{call}, &out))

	out.Reset()
	err = run(cliOptions{Format: "text", Strict: true}, []string{call}, &out)
	require.Error(t, err)
	assert.Contains(t, out.String(), "UnsupportedConstructError")
}

func TestRunYAMLKeepsScopeOrder(t *testing.T) {
	dir := t.TempDir()
	path := writeProgram(t, dir, "order.py", "zeta = 1\nalpha = [1, 2]\nd = {'z': 1, 'a': {'y': [alpha], 'b': None}}\n")

	var out bytes.Buffer
	require.NoError(t, run(cliOptions{Format: "yaml"}, []string{path}, &out))

	var docs []struct {
		Status string `yaml:"status"`
		Steps  []struct {
			Line  int       `yaml:"line"`
			Scope yaml.Node `yaml:"scope"`
		} `yaml:"steps"`
	}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &docs))
	require.Len(t, docs, 1)
	require.Len(t, docs[0].Steps, 3)

	scope := docs[0].Steps[1].Scope
	require.Equal(t, yaml.MappingNode, scope.Kind)
	require.Len(t, scope.Content, 4)
	assert.Equal(t, "zeta", scope.Content[0].Value)
	assert.Equal(t, "alpha", scope.Content[2].Value)
	assert.Equal(t, yaml.SequenceNode, scope.Content[3].Kind)

	// nested dicts keep insertion order too
	scope = docs[0].Steps[2].Scope
	require.Len(t, scope.Content, 6)
	d := scope.Content[5]
	require.Equal(t, yaml.MappingNode, d.Kind)
	require.Len(t, d.Content, 4)
	assert.Equal(t, "z", d.Content[0].Value)
	assert.Equal(t, "a", d.Content[2].Value)
	inner := d.Content[3]
	require.Equal(t, yaml.MappingNode, inner.Kind)
	require.Len(t, inner.Content, 4)
	assert.Equal(t, "y", inner.Content[0].Value)
	assert.Equal(t, yaml.SequenceNode, inner.Content[1].Kind)
	assert.Equal(t, "b", inner.Content[2].Value)
	assert.Equal(t, "!!null", inner.Content[3].Tag)
}

func TestYAMLValueMarksCycles(t *testing.T) {
	l := interpreter.NewList(interpreter.Int(1))
	l.Items = append(l.Items, l)
	n, err := yamlValue(l, map[any]bool{})
	require.NoError(t, err)
	require.Len(t, n.Content, 2)
	assert.Equal(t, "1", n.Content[0].Value)
	assert.Equal(t, "[...]", n.Content[1].Value)
}

func TestRunRejectsBadInput(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run(cliOptions{Format: "xml"}, []string{"x.py"}, &out))
	assert.Error(t, run(cliOptions{Format: "json"}, nil, &out))
	assert.Error(t, run(cliOptions{Format: "json", ConfigPath: "./missing.yaml"}, []string{"x.py"}, &out))

	// a missing program is a failed result, not an aborted run
	out.Reset()
	err := run(cliOptions{Format: "json"}, []string{filepath.Join(t.TempDir(), "missing.py")}, &out)
	require.Error(t, err)
	assert.Contains(t, out.String(), "ReadError")
}

func TestDiscoverFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeProgram(t, dir, "a.py", "")
	b := writeProgram(t, dir, "b.py", "")
	writeProgram(t, dir, "notes.txt", "")

	files, err := discoverFiles([]string{filepath.Join(dir, "*.py"), a, " "})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, files)
}

func TestTraceFilesKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for _, name := range []string{"p1.py", "p2.py", "p3.py", "p4.py", "p5.py"} {
		files = append(files, writeProgram(t, dir, name, "x = 1\n"))
	}

	results, err := traceFiles(context.Background(), files, cfg.NewConfig(), 2)
	require.NoError(t, err)
	require.Len(t, results, len(files))
	for i, r := range results {
		assert.Equal(t, files[i], r.File)
		assert.Equal(t, statusSuccess, r.Status)
	}
}

func TestSplitCSV(t *testing.T) {
	assert.Nil(t, splitCSV("  "))
	assert.Equal(t, []string{"a.py", "b/*.py"}, splitCSV("a.py, ,b/*.py"))
}

func TestRunXML(t *testing.T) {
	dir := t.TempDir()
	path := writeProgram(t, dir, "xml.py", "x = 1\ny = [x, 2]\n")

	var out bytes.Buffer
	require.NoError(t, run(cliOptions{Format: "xml"}, []string{path}, &out))

	var doc struct {
		XMLName xml.Name `xml:"traces"`
		Traces  []struct {
			File   string `xml:"file,attr"`
			Status string `xml:"status,attr"`
			Steps  []struct {
				Line    int    `xml:"line,attr"`
				Message string `xml:"message"`
				Vars    []struct {
					Name  string `xml:"name,attr"`
					Value string `xml:",chardata"`
				} `xml:"var"`
			} `xml:"step"`
		} `xml:"trace"`
	}
	require.NoError(t, xml.Unmarshal(out.Bytes(), &doc), out.String())
	require.Len(t, doc.Traces, 1)
	assert.Equal(t, statusSuccess, doc.Traces[0].Status)
	require.Len(t, doc.Traces[0].Steps, 2)

	last := doc.Traces[0].Steps[1]
	assert.Equal(t, 2, last.Line)
	require.Len(t, last.Vars, 2)
	assert.Equal(t, "y", last.Vars[1].Name)
	assert.Equal(t, "[1, 2]", last.Vars[1].Value)
}

func TestRunRemoteProgram(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/prog.py" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("a = 2\nb = a * 3\n"))
	}))
	defer srv.Close()

	var out bytes.Buffer
	require.NoError(t, run(cliOptions{Format: "text"}, []string{srv.URL + "/prog.py"}, &out))
	assert.Contains(t, out.String(), "Assigns 6 to variable 'b'")

	out.Reset()
	err := run(cliOptions{Format: "text"}, []string{srv.URL + "/missing.py"}, &out)
	require.Error(t, err)
	assert.Contains(t, out.String(), "ReadError")
}
