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

const (
	// EnableStr is a constant for the string "enable".
	EnableStr = "enable"
	// DisableStr is a constant for the string "disable".
	DisableStr = "disable"
	// LoalhostStr is a constant for the string "localhost".
	LoalhostStr = "localhost"
	// HTTPStr is a constant for the string "http".
	HTTPStr = "http"
	// HTTPSStr is a constant for the string "https".
	HTTPSStr = "https"
	// JSONStr is a constant for the string "json".
	JSONStr = "json"
	// YAMLStr is a constant for the string "yaml".
	YAMLStr = "yaml"
)
