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

// Package main (API) implements the HTTP service that turns programs into
// execution traces.
package main

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	cmn "github.com/pzaino/algovisualizer/pkg/common"
	cfg "github.com/pzaino/algovisualizer/pkg/config"
)

var (
	configMutex sync.Mutex
	configFile  *string

	sysReadyMtx sync.RWMutex // Mutex to protect the SysReady variable
	sysReady    int          // System readiness status variable 0 = not ready, 1 = starting up, 2 = ready
)

func setSysReady(newStatus int) {
	if newStatus < 0 || newStatus > 2 {
		return
	}
	sysReadyMtx.Lock()
	defer sysReadyMtx.Unlock()
	sysReady = newStatus
}

func getSysReady() int {
	sysReadyMtx.RLock()
	defer sysReadyMtx.RUnlock()
	return sysReady
}

func initAll(configFile string) error {
	currentSysReady := getSysReady()
	setSysReady(1) // Indicate system is starting up or being restarted
	defer setSysReady(currentSysReady)

	config, err := cfg.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if cfg.IsEmpty(config) {
		return errors.New("config file is empty")
	}

	// Set the OS variable
	config.OS = runtime.GOOS

	if !cmn.SetDebugLevelFromString(config.DebugLevel) {
		cmn.DebugMsg(cmn.DbgLvlWarning, "Unknown debug level '%s', keeping %d", config.DebugLevel, cmn.GetDebugLevel())
	}
	cmn.UpdateLoggerConfig()

	st, err := newServiceState(config)
	if err != nil {
		return err
	}
	// traces cached under the previous configuration are not served again
	if prev := state.Swap(st); prev != nil && prev.cache != nil {
		flushed := prev.cache.Size()
		prev.cache.DeleteAll()
		cmn.DebugMsg(cmn.DbgLvlInfo, "Trace cache flushed on reload (%d entries)", flushed)
	}

	cmn.DebugMsg(cmn.DbgLvlInfo, "Configuration loaded: step limit %d, cell limit %d, nesting depth %d, %d concurrent runs, cache enabled: %t",
		config.Interpreter.StepLimit, config.Interpreter.CellLimit, config.Interpreter.MaxNestingDepth, cap(st.runs), config.Cache.Enabled)
	return nil
}

func main() {
	setSysReady(1) // Indicate system is starting

	// Parse the command line arguments
	configFile = flag.String("config", cfg.DefaultConfigFile, "Path to the configuration file")
	flag.Parse()

	// Initialize the logger
	cmn.InitLogger("AlgoVisualizerAPI")
	cmn.DebugMsg(cmn.DbgLvlInfo, "The AlgoVisualizer API is starting...")

	// Setting up a channel to listen for termination signals
	cmn.DebugMsg(cmn.DbgLvlInfo, "Setting up termination signals listener...")
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)

	go func() {
		for {
			sig := <-signals
			switch sig {
			case syscall.SIGINT:
				cmn.DebugMsg(cmn.DbgLvlInfo, "SIGINT received, shutting down...")
				os.Exit(0)

			case syscall.SIGTERM:
				cmn.DebugMsg(cmn.DbgLvlInfo, "SIGTERM received, shutting down...")
				updateMetrics()
				os.Exit(0)

			case syscall.SIGQUIT:
				cmn.DebugMsg(cmn.DbgLvlInfo, "SIGQUIT received, shutting down...")
				updateMetrics()
				os.Exit(0)

			case syscall.SIGHUP:
				cmn.DebugMsg(cmn.DbgLvlInfo, "SIGHUP received, reloading configuration...")
				updateMetrics()
				configMutex.Lock()
				err := initAll(*configFile)
				configMutex.Unlock()
				if err != nil {
					// the previous configuration stays in place
					cmn.DebugMsg(cmn.DbgLvlError, "Error reloading configuration: %v", err)
				}
			}
		}
	}()

	// Initialize the configuration
	if err := initAll(*configFile); err != nil {
		cmn.DebugMsg(cmn.DbgLvlFatal, "Error initializing the service: %v", err)
		os.Exit(-1)
	}
	config := getState().config

	mux := http.NewServeMux()
	initAPIv1(mux)
	srv := newServer(config.API, mux)

	// ---------------------------------------------------------
	// Start Prometheus metrics updater
	// ---------------------------------------------------------
	if config.Prometheus.Enabled {
		updateMetrics()
		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()

			for range ticker.C {
				updateMetrics()
			}
		}()
	}

	// ---------------------------------------------------------
	// Start trace cache janitor
	// ---------------------------------------------------------
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			if st := getState(); st.cache != nil {
				if n := st.cache.DeleteExpired(); n > 0 {
					cmn.DebugMsg(cmn.DbgLvlDebug3, "Removed %d expired traces from the cache", n)
				}
			}
		}
	}()

	cmn.DebugMsg(cmn.DbgLvlInfo, "Starting server on %s:%d", config.API.Host, config.API.Port)
	cmn.DebugMsg(cmn.DbgLvlInfo, "Awaiting for requests...")
	setSysReady(2) // Indicate system is ready
	if strings.ToLower(strings.TrimSpace(config.API.SSLMode)) == cmn.EnableStr {
		cmn.DebugMsg(cmn.DbgLvlError, "Server return: %v", srv.ListenAndServeTLS(config.API.CertFile, config.API.KeyFile))
	} else {
		cmn.DebugMsg(cmn.DbgLvlError, "Server return: %v", srv.ListenAndServe())
	}
	setSysReady(0) // Indicate system is NOT ready
	os.Exit(1)
}

// newServer applies the timeouts of the api section. Timeouts are read once
// at start up, a reload does not change them.
func newServer(api cfg.API, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:    fmt.Sprintf("%s:%d", api.Host, api.Port),
		Handler: handler,

		// ReadHeaderTimeout is the amount of time allowed to read
		// request headers.
		ReadHeaderTimeout: time.Duration(api.ReadHeaderTimeout) * time.Second,

		// ReadTimeout is the maximum duration for reading the entire
		// request, including the body.
		ReadTimeout: time.Duration(api.ReadTimeout) * time.Second,

		// WriteTimeout covers a whole run, so it must exceed the time
		// a request may wait for an interpreter slot.
		WriteTimeout: time.Duration(api.WriteTimeout) * time.Second,

		// IdleTimeout is the maximum amount of time to wait for the
		// next request when keep-alive are enabled.
		IdleTimeout: time.Duration(api.Timeout) * time.Second,
	}
}

// -------------------------------------------
// API v1 Handlers and Middlewares
//--------------------------------------------

// initAPIv1 initializes the API v1 handlers
func initAPIv1(mux *http.ServeMux) {
	// Health check
	healthCheckWithMiddlewares := SecurityHeadersMiddleware(RateLimitMiddleware(http.HandlerFunc(healthCheckHandler)))
	readyCheckWithMiddlewares := SecurityHeadersMiddleware(RateLimitMiddleware(http.HandlerFunc(readyCheckHandler)))
	routesWithMiddlewares := SecurityHeadersMiddleware(RateLimitMiddleware(http.HandlerFunc(routesHandler)))

	handle(mux, "/v1/health", healthCheckWithMiddlewares, []string{http.MethodGet}, "Liveness probe")
	mux.Handle("/v1/health/", healthCheckWithMiddlewares)
	handle(mux, "/v1/ready", readyCheckWithMiddlewares, []string{http.MethodGet}, "Readiness probe (STARTING UP, READY, NOT READY)")
	mux.Handle("/v1/ready/", readyCheckWithMiddlewares)
	handle(mux, "/v1/routes", routesWithMiddlewares, []string{http.MethodGet}, "Lists the API routes")

	// Trace handlers
	visualize := withPublicMiddlewares(visualizeHandler)
	handle(mux, "/visualize", visualize, []string{http.MethodPost}, "Traces the program in the code field")
	handle(mux, "/v1/visualize", visualize, []string{http.MethodPost}, "Traces the program in the code field")
}

// handle registers h on mux and records the route for /v1/routes.
func handle(mux *http.ServeMux, path string, h http.Handler, methods []string, description string) {
	mux.Handle(path, h)
	cmn.RegisterRoute(path, methods, description)
}
