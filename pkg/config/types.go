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

// Config represents the structure of the configuration file
type Config struct {
	API         API         `yaml:"api"`
	Interpreter Interpreter `yaml:"interpreter"`
	Cache       Cache       `yaml:"cache"`
	Prometheus  Prometheus  `yaml:"prometheus"`
	Remote      Remote      `yaml:"remote"`
	OS          string      `yaml:"os"`
	DebugLevel  string      `yaml:"debug_level"` // none, error, warning, info, debug1..debug5 or 0..9
}

// API represents the HTTP service configuration
type API struct {
	Host              string `yaml:"host"`               // Interface to listen on
	Port              int    `yaml:"port"`               // Port to listen on
	Timeout           int    `yaml:"timeout"`            // Idle timeout in seconds
	SSLMode           string `yaml:"sslmode"`            // "enable" serves HTTPS with CertFile and KeyFile
	CertFile          string `yaml:"cert_file"`          // TLS certificate
	KeyFile           string `yaml:"key_file"`           // TLS private key
	RateLimit         string `yaml:"rate_limit"`         // "requests per second,burst"
	ReadHeaderTimeout int    `yaml:"readheader_timeout"` // seconds
	ReadTimeout       int    `yaml:"read_timeout"`       // seconds
	WriteTimeout      int    `yaml:"write_timeout"`      // seconds
	MaxBodySize       int64  `yaml:"max_body_size"`      // bytes
	QueueTimeout      int    `yaml:"queue_timeout"`      // seconds a request may wait for a free interpreter slot
	CORSOrigin        string `yaml:"cors_origin"`        // Access-Control-Allow-Origin value, "none" disables CORS headers
}

// Interpreter represents the limits applied to every run
type Interpreter struct {
	StepLimit         int   `yaml:"step_limit"`          // records per run
	CellLimit         int64 `yaml:"cell_limit"`          // memory per run, in container slots and 16-byte string units
	MaxNestingDepth   int   `yaml:"max_nesting_depth"`   // syntax nesting accepted by the parser
	StrictCalls       bool  `yaml:"strict_calls"`        // fail on unrecognized calls instead of skipping them
	MaxConcurrentRuns int   `yaml:"max_concurrent_runs"` // runs executing at the same time
}

// Cache represents the trace cache configuration
type Cache struct {
	Enabled     bool   `yaml:"enabled"`
	TTL         int    `yaml:"ttl"`         // seconds
	MaxEntries  int    `yaml:"max_entries"` // 0 means unbounded
	Fingerprint string `yaml:"fingerprint"` // blake2b, murmur3 or sha256
}

// Prometheus represents the push-gateway configuration
type Prometheus struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// Remote represents how programs stored on HTTP(S) servers or S3 buckets
// are fetched by the command line tools
type Remote struct {
	Timeout     int    `yaml:"timeout"`      // seconds
	MaxSize     int64  `yaml:"max_size"`     // bytes
	Retries     int    `yaml:"retries"`      // retries on transient failures
	S3Region    string `yaml:"s3_region"`    // empty uses the AWS default chain
	S3Endpoint  string `yaml:"s3_endpoint"`  // S3 compatible endpoint (e.g. MinIO)
	S3AccessKey string `yaml:"s3_access_key"`
	S3SecretKey string `yaml:"s3_secret_key"`
}
