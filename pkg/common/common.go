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

// Package common package is used to store common functions and variables
package common

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// InitLogger initializes the logger
func InitLogger(appName string) {
	log.SetOutput(os.Stdout)

	// create process instance name: <hostname>:<pid>:<ppid>
	processName := GetHostName() + ":" + strconv.Itoa(os.Getpid()) + ":" + strconv.Itoa(os.Getppid())

	loggerPrefix = appName + " [" + processName + "]: "

	log.SetFlags(log.LstdFlags | log.Ldate | log.Ltime | log.Lmicroseconds)
}

// UpdateLoggerConfig Updates the logger configuration
func UpdateLoggerConfig() {
	if debugLevel >= DbgLvlDebug {
		log.SetFlags(log.LstdFlags | log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags | log.Ldate | log.Ltime | log.Lmicroseconds)
	}
}

// GetHostName returns the host name or "localhost" when it cannot be read
func GetHostName() string {
	hostname, err := os.Hostname()
	if err != nil || strings.TrimSpace(hostname) == "" {
		return LoalhostStr
	}
	return hostname
}

// GetMicroServiceName returns the name this instance reports in its
// metrics: $MICROSERVICE_NAME when set, the host name otherwise.
func GetMicroServiceName() string {
	if name := strings.TrimSpace(os.Getenv("MICROSERVICE_NAME")); name != "" {
		return name
	}
	return GetHostName()
}

// SetDebugLevel allows to set the current debug level
func SetDebugLevel(dbgLvl DbgLevel) {
	debugLevel = dbgLvl
}

// SetDebugLevelFromString sets the debug level from its configuration name
// ("info", "debug3", ...) or from its numeric value. Unknown names leave
// the current level untouched and return false.
func SetDebugLevelFromString(level string) bool {
	level = strings.ToLower(strings.TrimSpace(level))
	if lvl, ok := dbgLevelNames[level]; ok {
		debugLevel = lvl
		return true
	}
	n, err := strconv.Atoi(level)
	if err != nil || n < int(DbgLvlNone) || n > int(DbgLvlDebug5) {
		return false
	}
	debugLevel = DbgLevel(n)
	return true
}

// GetDebugLevel returns the value of the current debug level
func GetDebugLevel() DbgLevel {
	return debugLevel
}

// DebugMsg is a function that prints debug information
func DebugMsg(dbgLvl DbgLevel, msg string, args ...interface{}) {
	if dbgLvl == DbgLvlNone {
		return
	}
	// Fatal, Error, Warning and Info are always logged
	if dbgLvl <= DbgLvlInfo {
		log.Printf(loggerPrefix+msg, args...)
		if dbgLvl == DbgLvlFatal {
			os.Exit(1)
		}
		return
	}
	if debugLevel >= dbgLvl {
		log.Printf(loggerPrefix+msg, args...)
	}
}
