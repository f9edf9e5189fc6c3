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

// Package main (runTrace) is a command line that traces programs from files
// without going through the API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	cmn "github.com/pzaino/algovisualizer/pkg/common"
	cfg "github.com/pzaino/algovisualizer/pkg/config"
	"github.com/pzaino/algovisualizer/pkg/interpreter"

	"github.com/clbanning/mxj/v2"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

const (
	statusSuccess = "success"
	statusError   = "error"
	textFormat    = "text"
	xmlFormat     = "xml"
)

type cliOptions struct {
	ConfigPath string
	Format     string
	FilesCSV   string
	StepLimit  int
	Strict     bool
	Jobs       int
}

// TraceResult holds the outcome of tracing a single file
type TraceResult struct {
	File   string            `json:"file"`
	Status string            `json:"status"`
	Steps  interpreter.Trace `json:"steps,omitempty"`
	Error  *RunError         `json:"error,omitempty"`
}

// RunError describes why a file could not be traced
type RunError struct {
	Kind    string `json:"kind" yaml:"kind"`
	Line    int    `json:"line,omitempty" yaml:"line,omitempty"`
	Message string `json:"message" yaml:"message"`
}

type yamlStep struct {
	Line    int        `yaml:"line"`
	Message string     `yaml:"message"`
	Scope   *yaml.Node `yaml:"scope"`
}

type yamlResult struct {
	File   string     `yaml:"file"`
	Status string     `yaml:"status"`
	Steps  []yamlStep `yaml:"steps,omitempty"`
	Error  *RunError  `yaml:"error,omitempty"`
}

func main() {
	opts := parseFlags()
	cmn.InitLogger("runTrace")

	if err := run(opts, flag.Args(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "runTrace: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() cliOptions {
	var o cliOptions

	flag.StringVar(&o.ConfigPath, "config", "", "Path to config.yaml (optional, the interpreter section is used)")
	flag.StringVar(&o.Format, "format", cmn.JSONStr, "Output format: json|yaml|xml|text")
	flag.StringVar(&o.FilesCSV, "files", "", "Program paths, globs or http(s):// and s3:// URLs (comma-separated), in addition to the arguments")
	flag.IntVar(&o.StepLimit, "limit", 0, "Maximum number of steps per program (0 uses the configuration)")
	flag.BoolVar(&o.Strict, "strict", false, "Fail on calls that are not list/dict methods instead of skipping them")
	flag.IntVar(&o.Jobs, "jobs", 0, "Programs traced at the same time (0 uses the configuration)")

	flag.Parse()
	return o
}

func run(opts cliOptions, args []string, out io.Writer) error {
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format != cmn.JSONStr && format != cmn.YAMLStr && format != xmlFormat && format != textFormat {
		return fmt.Errorf("unknown format %q", opts.Format)
	}

	conf := cfg.NewConfig()
	if opts.ConfigPath != "" {
		var err error
		conf, err = cfg.LoadConfig(opts.ConfigPath)
		if err != nil {
			return fmt.Errorf("loading config %s failed: %w", opts.ConfigPath, err)
		}
	}
	if opts.StepLimit > 0 {
		conf.Interpreter.StepLimit = opts.StepLimit
	}
	if opts.Strict {
		conf.Interpreter.StrictCalls = true
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = conf.Interpreter.MaxConcurrentRuns
	}
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	files, err := discoverFiles(append(splitCSV(opts.FilesCSV), args...))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no programs to trace")
	}

	results, err := traceFiles(context.Background(), files, conf, jobs)
	if err != nil {
		return err
	}

	if err := printResults(out, format, results); err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Status != statusSuccess {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d program(s) failed", failed, len(results))
	}
	return nil
}

// discoverFiles expands globs, keeping the first occurrence of every path.
// A pattern matching nothing is kept as a literal path so the read error
// is reported for it.
func discoverFiles(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string

	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if cmn.IsRemote(p) {
			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}
				out = append(out, p)
			}
			continue
		}

		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("bad glob %q: %w", p, err)
		}
		if len(matches) == 0 {
			matches = []string{p}
		}

		for _, path := range matches {
			if _, ok := seen[path]; ok {
				continue
			}
			seen[path] = struct{}{}
			out = append(out, path)
		}
	}
	return out, nil
}

// traceFiles runs every file with at most jobs runs at once. Results keep
// the order of files. Failing programs are reported in their result, only
// a cancelled context stops the whole batch.
func traceFiles(ctx context.Context, files []string, conf cfg.Config, jobs int) ([]TraceResult, error) {
	ic := conf.Interpreter
	fetchOpts := fetchOptions(conf.Remote)
	runOpts := []interpreter.Option{
		interpreter.WithStepLimit(ic.StepLimit),
		interpreter.WithCellLimit(ic.CellLimit),
		interpreter.WithMaxNestingDepth(ic.MaxNestingDepth),
		interpreter.WithStrictCalls(ic.StrictCalls),
	}

	results := make([]TraceResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = traceFile(ctx, path, fetchOpts, runOpts)
			cmn.DebugMsg(cmn.DbgLvlDebug, "%s: %s", path, results[i].Status)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func fetchOptions(rc cfg.Remote) cmn.FetchOpts {
	return cmn.FetchOpts{
		Timeout:     time.Duration(rc.Timeout) * time.Second,
		MaxSize:     rc.MaxSize,
		Retries:     rc.Retries,
		S3Region:    rc.S3Region,
		S3Endpoint:  rc.S3Endpoint,
		S3AccessKey: rc.S3AccessKey,
		S3SecretKey: rc.S3SecretKey,
	}
}

// readProgram loads a local file or fetches a remote one.
func readProgram(ctx context.Context, path string, fetchOpts cmn.FetchOpts) (string, error) {
	if cmn.IsRemote(path) {
		return cmn.FetchRemoteText(ctx, path, fetchOpts)
	}
	src, err := os.ReadFile(path) // #nosec G304 // paths come from the command line
	return string(src), err
}

func traceFile(ctx context.Context, path string, fetchOpts cmn.FetchOpts, runOpts []interpreter.Option) TraceResult {
	res := TraceResult{File: path}

	src, err := readProgram(ctx, path, fetchOpts)
	if err != nil {
		res.Status = statusError
		res.Error = &RunError{Kind: "ReadError", Message: err.Error()}
		return res
	}

	trace, err := interpreter.Run(src, runOpts...)
	if err != nil {
		res.Status = statusError
		res.Error = &RunError{Kind: "InternalError", Message: err.Error()}
		if ee, ok := interpreter.AsExecutionError(err); ok {
			res.Error = &RunError{Kind: ee.Kind.String(), Line: ee.Line, Message: ee.Message}
		}
		return res
	}
	res.Status = statusSuccess
	res.Steps = trace
	return res
}

func printResults(out io.Writer, format string, results []TraceResult) error {
	switch format {
	case cmn.YAMLStr:
		docs := make([]yamlResult, 0, len(results))
		for _, r := range results {
			doc, err := toYAMLResult(r)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(docs); err != nil {
			return fmt.Errorf("encoding YAML output: %w", err)
		}
		return enc.Close()

	case xmlFormat:
		traces := make([]interface{}, 0, len(results))
		for _, r := range results {
			traces = append(traces, toXMLResult(r))
		}
		mxj.XMLEscapeChars(true)
		doc := mxj.Map{"traces": map[string]interface{}{"trace": traces}}
		data, err := doc.XmlIndent("", "  ")
		if err != nil {
			return fmt.Errorf("encoding XML output: %w", err)
		}
		_, err = fmt.Fprintf(out, "%s\n", data)
		return err

	case textFormat:
		for _, r := range results {
			fmt.Fprintf(out, "== %s (%s)\n", r.File, r.Status)
			for _, s := range r.Steps {
				fmt.Fprintf(out, "%4d  %s\n", s.Line, s.Message)
			}
			if r.Error != nil {
				if r.Error.Line > 0 {
					fmt.Fprintf(out, "%4d  %s: %s\n", r.Error.Line, r.Error.Kind, r.Error.Message)
				} else {
					fmt.Fprintf(out, "      %s: %s\n", r.Error.Kind, r.Error.Message)
				}
			}
		}
		return nil

	default:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("encoding JSON output: %w", err)
		}
		return nil
	}
}

// toYAMLResult keeps every scope in binding order, which a Go map would lose.
func toYAMLResult(r TraceResult) (yamlResult, error) {
	doc := yamlResult{File: r.File, Status: r.Status, Error: r.Error}
	for _, s := range r.Steps {
		scope := &yaml.Node{Kind: yaml.MappingNode}
		for _, name := range s.Scope.Names() {
			v, _ := s.Scope.Get(name)
			val, err := yamlValue(v, map[any]bool{})
			if err != nil {
				return doc, fmt.Errorf("encoding %s in %s: %w", name, r.File, err)
			}
			scope.Content = append(scope.Content, yamlKey(name), val)
		}
		doc.Steps = append(doc.Steps, yamlStep{Line: s.Line, Message: s.Message, Scope: scope})
	}
	return doc, nil
}

func yamlKey(name string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name}
}

// yamlValue builds the node of v. Dicts keep insertion order at every
// depth and container cycles render as "[...]" or "{...}".
func yamlValue(v interpreter.Value, visiting map[any]bool) (*yaml.Node, error) {
	switch v := v.(type) {
	case *interpreter.List:
		if visiting[v] {
			return scalarNode("[...]")
		}
		visiting[v] = true
		defer delete(visiting, v)
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range v.Items {
			n, err := yamlValue(item, visiting)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, n)
		}
		return seq, nil

	case *interpreter.Dict:
		if visiting[v] {
			return scalarNode("{...}")
		}
		visiting[v] = true
		defer delete(visiting, v)
		m := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range v.Keys() {
			item, _, err := v.Get(k)
			if err != nil {
				return nil, err
			}
			n, err := yamlValue(item, visiting)
			if err != nil {
				return nil, err
			}
			m.Content = append(m.Content, yamlKey(interpreter.KeyString(k)), n)
		}
		return m, nil

	case interpreter.Int:
		return scalarNode(int64(v))
	case interpreter.Float:
		return scalarNode(float64(v))
	case interpreter.Str:
		return scalarNode(string(v))
	case interpreter.Bool:
		return scalarNode(bool(v))
	case interpreter.Range:
		return scalarNode(v.String())
	}
	return scalarNode(nil)
}

func scalarNode(v any) (*yaml.Node, error) {
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return n, nil
}

// toXMLResult renders scope values in their source form, as dict keys
// are not valid element names.
func toXMLResult(r TraceResult) map[string]interface{} {
	doc := map[string]interface{}{
		"-file":   r.File,
		"-status": r.Status,
	}
	steps := make([]interface{}, 0, len(r.Steps))
	for _, s := range r.Steps {
		vars := make([]interface{}, 0, s.Scope.Len())
		for _, name := range s.Scope.Names() {
			v, _ := s.Scope.Get(name)
			vars = append(vars, map[string]interface{}{
				"-name": name,
				"#text": interpreter.Repr(v),
			})
		}
		steps = append(steps, map[string]interface{}{
			"-line":   s.Line,
			"message": s.Message,
			"var":     vars,
		})
	}
	if len(steps) > 0 {
		doc["step"] = steps
	}
	if r.Error != nil {
		errDoc := map[string]interface{}{
			"-kind": r.Error.Kind,
			"#text": r.Error.Message,
		}
		if r.Error.Line > 0 {
			errDoc["-line"] = r.Error.Line
		}
		doc["error"] = errDoc
	}
	return doc
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
