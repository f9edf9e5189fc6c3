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

// Package config contains the configuration file parsing logic.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v2"
)

const (
	// DefaultConfigFile is the configuration file used when none is given
	DefaultConfigFile = "./config.yaml"

	maxIncludeDepth = 16
)

var (
	envVarPattern  = regexp.MustCompile(`\$\{?(\w+)\}?`)
	includePattern = regexp.MustCompile(`include:\s*["']?([^"'\s]+)["']?`)
)

// FileReader abstracts file access for the include processing
type FileReader interface {
	ReadFile(filename string) ([]byte, error)
}

// OsFileReader reads files from the local file system
type OsFileReader struct{}

// ReadFile reads the named file
func (OsFileReader) ReadFile(filename string) ([]byte, error) {
	return os.ReadFile(filename) //nolint:gosec // configuration paths are operator supplied
}

// fileExists checks if a file exists at the given filename.
// It returns true if the file exists and is not a directory, and false otherwise.
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) || err != nil {
		return false
	}
	return !info.IsDir()
}

// interpolateEnvVars replaces occurrences of `${VAR}` or `$VAR` in the input string
// with the value of the VAR environment variable.
func interpolateEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(varName string) string {
		trimmedVarName := strings.TrimPrefix(varName, "${")
		trimmedVarName = strings.TrimPrefix(trimmedVarName, "$")
		trimmedVarName = strings.TrimSuffix(trimmedVarName, "}")
		return os.Getenv(trimmedVarName)
	})
}

// recursiveInclude processes the "include" directives in YAML files.
// It supports environment variable interpolation in file paths.
func recursiveInclude(yamlContent string, baseDir string, reader FileReader) (string, error) {
	return includeAt(yamlContent, baseDir, reader, 0)
}

func includeAt(yamlContent string, baseDir string, reader FileReader, depth int) (string, error) {
	if depth > maxIncludeDepth {
		return "", fmt.Errorf("include directives nested deeper than %d levels", maxIncludeDepth)
	}
	matches := includePattern.FindAllStringSubmatch(yamlContent, -1)

	for _, match := range matches {
		includePath := interpolateEnvVars(match[1])
		if !filepath.IsAbs(includePath) {
			includePath = filepath.Join(baseDir, includePath)
		}

		includedContentBytes, err := reader.ReadFile(includePath)
		if err != nil {
			return "", fmt.Errorf("including %s: %w", includePath, err)
		}

		includedContent := interpolateEnvVars(string(includedContentBytes))
		if strings.Contains(includedContent, "include:") {
			includedContent, err = includeAt(includedContent, filepath.Dir(includePath), reader, depth+1)
			if err != nil {
				return "", err
			}
		}

		yamlContent = strings.Replace(yamlContent, match[0], includedContent, 1)
	}

	return yamlContent, nil
}

// ParseConfig unmarshals configuration data that has already been read,
// interpolated and expanded.
func ParseConfig(data []byte) (Config, error) {
	var config Config
	text := strings.TrimSpace(string(data))
	if text == "" {
		return config, nil
	}
	err := yaml.Unmarshal([]byte(text), &config)
	return config, err
}

// getConfigFile reads and unmarshals a configuration file with the given name.
// It checks if the file exists, reads its contents, and unmarshals it into a Config struct.
// If the file does not exist or an error occurs during reading or unmarshaling, an error is returned.
func getConfigFile(confName string) (Config, error) {
	if !fileExists(confName) {
		return Config{}, fmt.Errorf("file does not exist: %s", confName)
	}

	reader := OsFileReader{}
	data, err := reader.ReadFile(confName)
	if err != nil {
		return Config{}, err
	}

	// Interpolate environment variables and process includes
	interpolatedData := interpolateEnvVars(string(data))
	finalData, err := recursiveInclude(interpolatedData, filepath.Dir(confName), reader)
	if err != nil {
		return Config{}, err
	}

	return ParseConfig([]byte(finalData))
}

// LoadConfig is responsible for loading the configuration file
// and return the Config struct. Defaults are applied even when the
// file cannot be loaded, in which case the error is returned too.
func LoadConfig(confName string) (Config, error) {
	config, err := getConfigFile(confName)
	SetDefaults(&config)
	return config, err
}

// NewConfig returns a configuration holding only the default values
func NewConfig() Config {
	var config Config
	SetDefaults(&config)
	return config
}

// SetDefaults fills every unset field of config with its default value
func SetDefaults(config *Config) {
	config.OS = runtime.GOOS

	if config.API.Host == "" {
		config.API.Host = "localhost"
	}
	if config.API.Port == 0 {
		config.API.Port = 8080
	}
	if config.API.Timeout == 0 {
		config.API.Timeout = 60
	}
	if config.API.SSLMode == "" {
		config.API.SSLMode = "disable"
	}
	if strings.TrimSpace(config.API.RateLimit) == "" {
		config.API.RateLimit = "10,10"
	}
	if config.API.ReadHeaderTimeout == 0 {
		config.API.ReadHeaderTimeout = 15
	}
	if config.API.ReadTimeout == 0 {
		config.API.ReadTimeout = 30
	}
	if config.API.WriteTimeout == 0 {
		config.API.WriteTimeout = 30
	}
	if config.API.MaxBodySize <= 0 {
		config.API.MaxBodySize = 1 << 20
	}
	if config.API.QueueTimeout <= 0 {
		config.API.QueueTimeout = 5
	}
	if config.API.CORSOrigin == "" {
		config.API.CORSOrigin = "*"
	}

	if config.Interpreter.StepLimit <= 0 {
		config.Interpreter.StepLimit = 1000
	}
	if config.Interpreter.CellLimit <= 0 {
		config.Interpreter.CellLimit = 1 << 23
	}
	if config.Interpreter.MaxNestingDepth <= 0 {
		config.Interpreter.MaxNestingDepth = 1000
	}
	if config.Interpreter.MaxConcurrentRuns <= 0 {
		config.Interpreter.MaxConcurrentRuns = runtime.NumCPU()
	}

	if config.Cache.TTL <= 0 {
		config.Cache.TTL = 600
	}
	if config.Cache.MaxEntries < 0 {
		config.Cache.MaxEntries = 0
	}
	if config.Cache.Fingerprint == "" {
		config.Cache.Fingerprint = "blake2b"
	}

	if config.Prometheus.Host == "" {
		config.Prometheus.Host = "localhost"
	}
	if config.Prometheus.Port == 0 {
		config.Prometheus.Port = 9091
	}

	if config.Remote.Timeout <= 0 {
		config.Remote.Timeout = 30
	}
	if config.Remote.MaxSize <= 0 {
		config.Remote.MaxSize = config.API.MaxBodySize
	}
	if config.Remote.Retries < 0 {
		config.Remote.Retries = 0
	}

	if strings.TrimSpace(config.DebugLevel) == "" {
		config.DebugLevel = "none"
	}
}

// IsEmpty checks if the given config is empty.
// It returns true if the config is empty, false otherwise.
func IsEmpty(config Config) bool {
	return config == Config{}
}
