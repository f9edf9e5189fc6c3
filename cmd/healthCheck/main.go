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

// Package main (healthCheck) is a command line that checks whether the
// AlgoVisualizer API is reachable and ready to trace programs.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	cmn "github.com/pzaino/algovisualizer/pkg/common"
	cfg "github.com/pzaino/algovisualizer/pkg/config"
)

// probeType selects the API endpoint to query
type probeType int

const (
	health probeType = iota
	ready
)

func parseProbe(name string) (probeType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "health", "api":
		return health, nil
	case "ready":
		return ready, nil
	}
	return 0, fmt.Errorf("unknown probe: %s", name)
}

func genHealthURL(api cfg.API, t probeType) string {
	path := "/v1/health"
	if t == ready {
		path = "/v1/ready"
	}
	host := api.Host
	if host == "" || host == "0.0.0.0" {
		host = cmn.LoalhostStr
	}
	scheme := cmn.HTTPStr
	if strings.ToLower(strings.TrimSpace(api.SSLMode)) == cmn.EnableStr {
		scheme = cmn.HTTPSStr
	}
	return fmt.Sprintf("%s://%s:%d%s", scheme, host, api.Port, path)
}

// check returns nil when url answers 200 within timeout.
func check(url string, timeout time.Duration) error {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(url) //nolint:gosec // This is usually a localhost connection
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck // Don't lint for error not checked, this is a defer statement
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}

func main() {
	configFile := flag.String("config", cfg.DefaultConfigFile, "Path to the configuration file")
	probe := flag.String("probe", "health", "Endpoint to check (health, ready)")
	timeout := flag.Duration("timeout", 5*time.Second, "Time allowed for the check")

	cmn.InitLogger("healthCheck")

	// Parse the command line arguments
	flag.Parse()

	config, err := cfg.LoadConfig(*configFile)
	if err != nil {
		cmn.DebugMsg(cmn.DbgLvlError, "Health check failed to load %s: %v", *configFile, err)
		os.Exit(1)
	}

	t, err := parseProbe(*probe)
	if err != nil {
		cmn.DebugMsg(cmn.DbgLvlError, "%v", err)
		os.Exit(1)
	}

	healthURL := genHealthURL(config.API, t)
	if err := check(healthURL, *timeout); err != nil {
		cmn.DebugMsg(cmn.DbgLvlError, "Health check failed for %s: %v", healthURL, err)
		os.Exit(1)
	}

	// If successful, exit with zero (healthy)
	os.Exit(0)
}
