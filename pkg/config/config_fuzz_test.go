//go:build go1.22
// +build go1.22

// Package config contains the configuration file parsing logic.
package config

import (
	"testing"
)

func FuzzParseConfig(f *testing.F) {
	f.Add([]byte(`
api:
  host: "api.example.com"
  port: 8080
  timeout: 10
  sslmode: "disable"
  rate_limit: "10,5"
  readheader_timeout: 5
  read_timeout: 10
  write_timeout: 15
  max_body_size: 1048576
  queue_timeout: 5
  cors_origin: "*"
interpreter:
  step_limit: 1000
  max_nesting_depth: 1000
  strict_calls: false
  max_concurrent_runs: 8
cache:
  enabled: true
  ttl: 600
  max_entries: 1024
  fingerprint: "blake2b"
prometheus:
  enabled: false
  host: "localhost"
  port: 9091
os: "linux"
debug_level: "debug3"
`))
	f.Add([]byte(`debug_level: 3`))

	f.Fuzz(func(t *testing.T, data []byte) {
		config, err := ParseConfig(data)
		if err != nil {
			t.Skip()
		}
		SetDefaults(&config)
		if config.Interpreter.StepLimit <= 0 || config.API.MaxBodySize <= 0 {
			t.Errorf("defaults left invalid limits: %+v", config)
		}
	})
}
